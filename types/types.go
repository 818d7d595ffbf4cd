// Package types defines the content records shared by the SparkSaga runtime.
// Records are plain data; the only behavior here is JSON decoding of the
// tagged unions in union.go.
package types

// Element is a damage element. It doubles as a resistance key.
type Element string

const (
	Slash     Element = "slash"
	Pierce    Element = "pierce"
	Blunt     Element = "blunt"
	Fire      Element = "fire"
	Ice       Element = "ice"
	Lightning Element = "lightning"
	Wind      Element = "wind"
	Earth     Element = "earth"
	Water     Element = "water"
	Holy      Element = "holy"
	Dark      Element = "dark"
)

// DamageType selects the physical or magical damage formula.
type DamageType string

const (
	Physical DamageType = "physical"
	Magical  DamageType = "magical"
)

// Row is a formation row: front or back.
type Row string

const (
	Front Row = "F"
	Back  Row = "B"
)

// Resistances maps an element or a *_resistance tag to a multiplier
// (elements) or a refusal probability (status tags).
type Resistances map[string]float64

// Stats is the numeric vector shared by party members and enemies.
type Stats struct {
	MaxHP           int     `json:"maxHp" validate:"gt=0"`
	MaxLP           int     `json:"maxLp" validate:"gte=0"`
	MaxWP           int     `json:"maxWp" validate:"gte=0"`
	MaxJP           int     `json:"maxJp" validate:"gte=0"`
	Speed           float64 `json:"speed" validate:"gte=0"`
	WeaponAttack    float64 `json:"weaponAttack" validate:"gte=0"`
	Strength        float64 `json:"strength" validate:"gte=0"`
	Defense         float64 `json:"defense" validate:"gte=0"`
	StaffCorrection float64 `json:"staffCorrection" validate:"gte=0"`
	Intelligence    float64 `json:"intelligence" validate:"gte=0"`
	MagicDefense    float64 `json:"magicDefense" validate:"gte=0"`
	Dexterity       float64 `json:"dexterity" validate:"gte=0"`
	Agility         float64 `json:"agility" validate:"gte=0"`
	CriticalChance  float64 `json:"criticalChance" validate:"gte=0"`
}

// StatOverrides is a partial Stats block; nil fields keep the base value.
type StatOverrides struct {
	MaxHP           *int     `json:"maxHp,omitempty" validate:"omitempty,gt=0"`
	MaxLP           *int     `json:"maxLp,omitempty" validate:"omitempty,gte=0"`
	MaxWP           *int     `json:"maxWp,omitempty" validate:"omitempty,gte=0"`
	MaxJP           *int     `json:"maxJp,omitempty" validate:"omitempty,gte=0"`
	Speed           *float64 `json:"speed,omitempty" validate:"omitempty,gte=0"`
	WeaponAttack    *float64 `json:"weaponAttack,omitempty" validate:"omitempty,gte=0"`
	Strength        *float64 `json:"strength,omitempty" validate:"omitempty,gte=0"`
	Defense         *float64 `json:"defense,omitempty" validate:"omitempty,gte=0"`
	StaffCorrection *float64 `json:"staffCorrection,omitempty" validate:"omitempty,gte=0"`
	Intelligence    *float64 `json:"intelligence,omitempty" validate:"omitempty,gte=0"`
	MagicDefense    *float64 `json:"magicDefense,omitempty" validate:"omitempty,gte=0"`
	Dexterity       *float64 `json:"dexterity,omitempty" validate:"omitempty,gte=0"`
	Agility         *float64 `json:"agility,omitempty" validate:"omitempty,gte=0"`
	CriticalChance  *float64 `json:"criticalChance,omitempty" validate:"omitempty,gte=0"`
}

// ItemQuantity is an {id, quantity} pair used by rewards and commands.
type ItemQuantity struct {
	ID       string `json:"id" validate:"contentid"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// Balance holds the global combat coefficients.
type Balance struct {
	PhysicalDamage     PhysicalCoefficients `json:"physical_damage"`
	MagicalDamage      MagicalCoefficients  `json:"magical_damage"`
	AffixKeys          []string             `json:"affix_keys"`
	PlayerBaseStats    BaseStats            `json:"player_base_stats"`
	LevelUpMultipliers LevelUpMultipliers   `json:"level_up_multipliers"`
	CritChanceMax      float64              `json:"crit_chance_max" validate:"gte=0,lte=0.3"`
}

type PhysicalCoefficients struct {
	WeaponAttackCoefficient float64 `json:"weapon_attack_coefficient" validate:"gte=0"`
	StrengthCoefficient     float64 `json:"strength_coefficient" validate:"gte=0"`
	DefenseFactor           float64 `json:"defense_factor" validate:"gt=0"`
}

type MagicalCoefficients struct {
	StaffCorrectionCoefficient float64 `json:"staff_correction_coefficient" validate:"gte=0"`
	IntelligenceCoefficient    float64 `json:"intelligence_coefficient" validate:"gte=0"`
	MagicDefenseFactor         float64 `json:"magic_defense_factor" validate:"gt=0"`
}

type BaseStats struct {
	HP      int `json:"hp" validate:"gte=0"`
	Attack  int `json:"attack" validate:"gte=0"`
	Defense int `json:"defense" validate:"gte=0"`
}

type LevelUpMultipliers struct {
	HP      float64 `json:"hp" validate:"gte=0"`
	Attack  float64 `json:"attack" validate:"gte=0"`
	Defense float64 `json:"defense" validate:"gte=0"`
}

// Item is a consumable or key item. Effect is an optional action string
// such as "heal_hp:30" or "cure:poison".
type Item struct {
	ID          string `json:"id" validate:"contentid"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Effect      string `json:"effect,omitempty"`
}

type Weapon struct {
	ID          string   `json:"id" validate:"contentid"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Attack      int      `json:"attack" validate:"gt=0"`
	Op          []string `json:"op,omitempty"`
}

type Armor struct {
	ID          string `json:"id" validate:"contentid"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Defense     int    `json:"defense" validate:"gt=0"`
}

// SkillCost is paid from the actor's WP and JP pools.
type SkillCost struct {
	WP int `json:"wp,omitempty" validate:"gte=0"`
	JP int `json:"jp,omitempty" validate:"gte=0"`
}

type Skill struct {
	ID            string     `json:"id" validate:"contentid"`
	Name          string     `json:"name" validate:"required"`
	Description   string     `json:"description"`
	Power         int        `json:"power" validate:"gt=0"`
	Element       Element    `json:"element" validate:"element"`
	Type          DamageType `json:"type" validate:"omitempty,oneof=physical magical"`
	Cost          SkillCost  `json:"cost"`
	StatusEffects []string   `json:"statusEffects,omitempty" validate:"dive,contentid"`
}

// StatusEffectType discriminates StatusEffectEntry.
type StatusEffectType string

const (
	DamageOverTime StatusEffectType = "damage_over_time"
	StatChange     StatusEffectType = "stat_change"
	PreventAction  StatusEffectType = "prevent_action"
	DisableMagic   StatusEffectType = "disable_magic"
	Confuse        StatusEffectType = "confuse"
)

type StatusEffectEntry struct {
	Type  StatusEffectType `json:"type" validate:"oneof=damage_over_time stat_change prevent_action disable_magic confuse"`
	Stat  string           `json:"stat,omitempty" validate:"omitempty,oneof=hp wp jp strength defense intelligence magicDefense speed dexterity agility"`
	Value *float64         `json:"value,omitempty"`
}

type StatusEffect struct {
	ID             string              `json:"id" validate:"contentid"`
	Name           string              `json:"name" validate:"required"`
	Duration       int                 `json:"duration" validate:"gt=0"`
	Effects        []StatusEffectEntry `json:"effects" validate:"dive"`
	ResistanceTags []string            `json:"resistanceTags"`
}

type Enemy struct {
	ID          string      `json:"id" validate:"contentid"`
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description"`
	Level       int         `json:"level" validate:"gte=1"`
	Stats       Stats       `json:"stats"`
	Resistances Resistances `json:"resistances,omitempty" validate:"dive,keys,resistance,endkeys,gte=0"`
	Skills      []string    `json:"skills,omitempty" validate:"dive,contentid"`
}

// RowModifiers are fractional deltas applied to a row's members.
type RowModifiers struct {
	Attack    float64 `json:"attack,omitempty"`
	Defense   float64 `json:"defense,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Critical  float64 `json:"critical,omitempty"`
	Taunt     float64 `json:"taunt,omitempty"`
	ComboRate float64 `json:"comboRate,omitempty"`
}

type FormationModifiers struct {
	Front RowModifiers `json:"front"`
	Back  RowModifiers `json:"back"`
}

type Formation struct {
	ID        string             `json:"id" validate:"contentid"`
	Name      string             `json:"name" validate:"required"`
	Rows      []Row              `json:"rows" validate:"min=1,max=5,dive,oneof=F B"`
	Modifiers FormationModifiers `json:"modifiers"`
}

// CommandType is one of the battle commands a party member can issue.
type CommandType string

const (
	CommandAttack CommandType = "attack"
	CommandDefend CommandType = "defend"
	CommandSkill  CommandType = "skill"
	CommandItem   CommandType = "item"
)

type Command struct {
	ID     string         `json:"id" validate:"contentid"`
	Name   string         `json:"name" validate:"required"`
	Type   CommandType    `json:"type" validate:"oneof=attack defend skill item"`
	Skills []string       `json:"skills,omitempty" validate:"dive,contentid"`
	Items  []ItemQuantity `json:"items,omitempty" validate:"dive"`
}

type Equipment struct {
	Weapon string `json:"weapon,omitempty" validate:"omitempty,contentid"`
	Armor  string `json:"armor,omitempty" validate:"omitempty,contentid"`
}

type PartyMember struct {
	ID                string      `json:"id" validate:"contentid"`
	Name              string      `json:"name" validate:"required"`
	FormationPosition Row         `json:"formationPosition,omitempty" validate:"omitempty,oneof=F B"`
	Stats             Stats       `json:"stats"`
	Resistances       Resistances `json:"resistances,omitempty" validate:"dive,keys,resistance,endkeys,gte=0"`
	Equipment         Equipment   `json:"equipment"`
	Commands          []Command   `json:"commands" validate:"min=1,dive"`
}

type Party struct {
	ID        string        `json:"id" validate:"contentid"`
	Name      string        `json:"name" validate:"required"`
	Formation string        `json:"formation" validate:"contentid"`
	Members   []PartyMember `json:"members" validate:"min=1,dive"`
}

type EncounterEnemy struct {
	ID                string         `json:"id" validate:"contentid"`
	EnemyID           string         `json:"enemyId" validate:"contentid"`
	FormationPosition Row            `json:"formationPosition,omitempty" validate:"omitempty,oneof=F B"`
	Stats             *StatOverrides `json:"stats,omitempty"`
	Resistances       Resistances    `json:"resistances,omitempty" validate:"dive,keys,resistance,endkeys,gte=0"`
}

type Rewards struct {
	Experience int            `json:"experience" validate:"gte=0"`
	Gold       int            `json:"gold" validate:"gte=0"`
	Items      []ItemQuantity `json:"items,omitempty" validate:"dive"`
	LootTables []string       `json:"lootTables,omitempty" validate:"dive,contentid"`
}

// Quest states written by encounters, conversations and map events.
const (
	QuestStarted   = "started"
	QuestUpdated   = "updated"
	QuestCompleted = "completed"
)

type QuestProgress struct {
	QuestID string `json:"questId" validate:"contentid"`
	State   string `json:"state,omitempty" validate:"omitempty,oneof=started updated completed"`
}

type Encounter struct {
	ID            string           `json:"id" validate:"contentid"`
	Name          string           `json:"name" validate:"required"`
	PlayerPartyID string           `json:"playerPartyId,omitempty" validate:"omitempty,contentid"`
	Enemies       []EncounterEnemy `json:"enemies" validate:"min=1,dive"`
	Rewards       Rewards          `json:"rewards"`
	QuestProgress []QuestProgress  `json:"questProgress,omitempty" validate:"dive"`
}

// Event is a conversation: a node graph entered at Nodes[0].
type Event struct {
	ID          string `json:"id" validate:"contentid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Nodes       []Node `json:"nodes" validate:"min=1,dive"`
}

// Guard gates a conversation node. Every set field must match.
type Guard struct {
	Region   string        `json:"region,omitempty"`
	ERGte    *int          `json:"er_gte,omitempty"`
	FlagsHas []string      `json:"flags_has,omitempty"`
	PartyHas []string      `json:"party_has,omitempty"`
	ItemHas  *ItemQuantity `json:"item_has,omitempty"`
}

type LootEntry struct {
	ItemID   string  `json:"item_id" validate:"contentid"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Chance   float64 `json:"chance" validate:"gte=0,lte=1"`
}

type LootTable struct {
	ID      string      `json:"id" validate:"contentid"`
	Entries []LootEntry `json:"entries" validate:"dive"`
}

type QuestRewards struct {
	Items []ItemQuantity `json:"items" validate:"dive"`
}

type Quest struct {
	ID          string       `json:"id" validate:"contentid"`
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Rewards     QuestRewards `json:"rewards"`
}

type FactionEffect struct {
	UnlockQuestID string `json:"unlock_quest_id" validate:"contentid"`
}

type FactionThreshold struct {
	Reputation int             `json:"reputation"`
	Effects    []FactionEffect `json:"effects" validate:"dive"`
}

type Faction struct {
	ID          string             `json:"id" validate:"contentid"`
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	Thresholds  []FactionThreshold `json:"thresholds" validate:"dive"`
}

// ShopItemType names the content kind a shop entry sells.
type ShopItemType string

const (
	ShopItem   ShopItemType = "item"
	ShopWeapon ShopItemType = "weapon"
	ShopArmor  ShopItemType = "armor"
)

type ShopEntry struct {
	ID    string       `json:"id" validate:"contentid"`
	Type  ShopItemType `json:"type" validate:"oneof=item weapon armor"`
	Price int          `json:"price" validate:"gte=0"`
}

type Shop struct {
	ID    string      `json:"id" validate:"contentid"`
	Name  string      `json:"name" validate:"required"`
	Items []ShopEntry `json:"items" validate:"dive"`
}

type EREffect struct {
	TargetID   string `json:"target_id" validate:"contentid"`
	EffectType string `json:"effect_type" validate:"required"`
	Value      any    `json:"value,omitempty"`
}

// ER groups effect lists by rank key.
type ER struct {
	Effects map[string][]EREffect `json:"effects" validate:"dive,dive"`
}

// Locale is one i18n table: key to display string.
type Locale map[string]string
