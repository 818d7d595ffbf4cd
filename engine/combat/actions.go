package combat

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/types"
)

const (
	baseHitRate = 1.0
	attackPower = 0
)

// CommandOption is one entry of the command menu.
type CommandOption struct {
	Command types.Command
	Enabled bool
}

// SkillOption is one entry of the skill menu.
type SkillOption struct {
	Skill   *types.Skill
	Enabled bool
}

// ItemOption is one held item offered by an item command.
type ItemOption struct {
	Item     *types.Item
	Quantity int
}

func (b *Battle) member() *types.PartyMember {
	if b.current == nil || !b.current.Ally {
		return nil
	}
	return b.members[b.current.ID]
}

// Commands lists the acting member's commands. A skill command is
// disabled when no listed skill is usable; an item command is disabled
// when no listed item is held.
func (b *Battle) Commands() []CommandOption {
	m := b.member()
	if m == nil {
		return nil
	}
	out := make([]CommandOption, 0, len(m.Commands))
	for _, cmd := range m.Commands {
		opt := CommandOption{Command: cmd, Enabled: true}
		switch cmd.Type {
		case types.CommandSkill:
			opt.Enabled = false
			for _, s := range b.skillsOf(cmd) {
				if s.Enabled {
					opt.Enabled = true
					break
				}
			}
		case types.CommandItem:
			opt.Enabled = len(b.itemsOf(cmd)) > 0
		}
		out = append(out, opt)
	}
	return out
}

func (b *Battle) skillsOf(cmd types.Command) []SkillOption {
	var out []SkillOption
	for _, id := range cmd.Skills {
		s, ok := b.deps.Store.Skill.Get(id)
		if !ok {
			continue
		}
		enabled := b.current.CanAfford(s.Cost)
		if s.Type == types.Magical && b.current.IsSilenced() {
			enabled = false
		}
		out = append(out, SkillOption{Skill: s, Enabled: enabled})
	}
	return out
}

func (b *Battle) itemsOf(cmd types.Command) []ItemOption {
	var out []ItemOption
	for _, it := range cmd.Items {
		q := b.deps.State.ItemQuantity(it.ID)
		if q <= 0 {
			continue
		}
		def, ok := b.deps.Store.Item.Get(it.ID)
		if !ok {
			continue
		}
		out = append(out, ItemOption{Item: def, Quantity: q})
	}
	return out
}

// SelectCommand picks a command by menu index.
func (b *Battle) SelectCommand(i int) error {
	if b.State() != StateCommand {
		return fmt.Errorf("%w: no command pending", ErrInvalidSelection)
	}
	opts := b.Commands()
	if i < 0 || i >= len(opts) {
		return fmt.Errorf("%w: command %d", ErrInvalidSelection, i)
	}
	if !opts[i].Enabled {
		return fmt.Errorf("%w: %s is disabled", ErrInvalidSelection, opts[i].Command.ID)
	}
	cmd := opts[i].Command
	b.pending = action{kind: cmd.Type, cmd: cmd}

	switch cmd.Type {
	case types.CommandAttack:
		return b.fire(evTarget)
	case types.CommandSkill:
		return b.fire(evSkill)
	case types.CommandItem:
		return b.fire(evItem)
	case types.CommandDefend:
		b.current.Guarding = true
		b.say("%s is guarding.", b.current.Name)
		if err := b.fire(evResolve); err != nil {
			return err
		}
		return b.nextTurn()
	}
	return fmt.Errorf("%w: command type %q", ErrInvalidSelection, cmd.Type)
}

// Skills lists the skills of the pending skill command.
func (b *Battle) Skills() []SkillOption {
	if b.pending.kind != types.CommandSkill {
		return nil
	}
	return b.skillsOf(b.pending.cmd)
}

// SelectSkill picks a skill by menu index and moves to target selection.
func (b *Battle) SelectSkill(i int) error {
	if b.State() != StateSkill {
		return fmt.Errorf("%w: no skill pending", ErrInvalidSelection)
	}
	opts := b.Skills()
	if i < 0 || i >= len(opts) {
		return fmt.Errorf("%w: skill %d", ErrInvalidSelection, i)
	}
	if !opts[i].Enabled {
		return fmt.Errorf("%s: %w", opts[i].Skill.ID, ErrInsufficientCost)
	}
	b.pending.skill = opts[i].Skill
	return b.fire(evTarget)
}

// Items lists the held items of the pending item command.
func (b *Battle) Items() []ItemOption {
	if b.pending.kind != types.CommandItem {
		return nil
	}
	return b.itemsOf(b.pending.cmd)
}

// SelectItem picks an item by menu index and moves to target selection.
func (b *Battle) SelectItem(i int) error {
	if b.State() != StateItem {
		return fmt.Errorf("%w: no item pending", ErrInvalidSelection)
	}
	opts := b.Items()
	if i < 0 || i >= len(opts) {
		return fmt.Errorf("%w: item %d", ErrInvalidSelection, i)
	}
	b.pending.item = opts[i].Item
	return b.fire(evTarget)
}

// Targets lists the candidates for the pending action: living allies for
// items, living enemies otherwise.
func (b *Battle) Targets() []*Combatant {
	if b.pending.kind == types.CommandItem {
		return living(b.Allies)
	}
	return living(b.Enemies)
}

// SelectTarget resolves the pending action against a target and runs
// turns until the next decision.
func (b *Battle) SelectTarget(i int) error {
	if b.State() != StateTarget {
		return fmt.Errorf("%w: no target pending", ErrInvalidSelection)
	}
	targets := b.Targets()
	if i < 0 || i >= len(targets) {
		return fmt.Errorf("%w: target %d", ErrInvalidSelection, i)
	}
	target := targets[i]
	actor := b.current

	switch b.pending.kind {
	case types.CommandAttack:
		b.strike(actor, target, "attacks", attackPower, types.Physical, types.Slash, nil)
	case types.CommandSkill:
		s := b.pending.skill
		if !actor.Pay(s.Cost) {
			b.say("%s cannot afford %s.", actor.Name, s.Name)
			b.pending = action{}
			return b.fire(evBack)
		}
		b.useSkill(actor, target, s)
	case types.CommandItem:
		b.useItem(actor, target, b.pending.item)
	}

	b.pending = action{}
	if err := b.fire(evResolve); err != nil {
		return err
	}
	return b.nextTurn()
}

// Back returns to the command menu from a sub-menu.
func (b *Battle) Back() error {
	if err := b.fire(evBack); err != nil {
		return err
	}
	b.pending = action{}
	return nil
}

// Escape tries to flee. Success ends the battle; failure spends the turn.
func (b *Battle) Escape() (bool, error) {
	if b.State() != StateCommand {
		return false, fmt.Errorf("%w: escape outside the command menu", ErrInvalidSelection)
	}
	if b.deps.Rand.Float64() < escapeChance {
		b.say("The party escaped!")
		return true, b.fire(evEscape)
	}
	b.say("Could not escape!")
	if err := b.fire(evResolve); err != nil {
		return false, err
	}
	return false, b.nextTurn()
}

func (b *Battle) useSkill(actor, target *Combatant, s *types.Skill) {
	typ := s.Type
	if typ == "" {
		typ = types.Physical
	}
	verb := "uses " + s.Name + " on"
	res := b.strike(actor, target, verb, float64(s.Power), typ, s.Element, s)
	if res.Outcome == Miss || !target.Alive() {
		return
	}
	for _, id := range s.StatusEffects {
		def, ok := b.deps.Store.StatusEffects.Get(id)
		if !ok {
			b.log.Warn("unknown status effect skipped", zap.String("skill", s.ID), zap.String("status", id))
			continue
		}
		switch target.AddStatusEffect(def) {
		case StatusApplied:
			b.say("%s is afflicted with %s.", target.Name, def.Name)
		case StatusRefreshed:
			b.say("%s's %s is renewed.", target.Name, def.Name)
		case StatusResisted:
			b.say("%s resists %s.", target.Name, def.Name)
		}
	}
}

// strike resolves one damaging action and logs it.
func (b *Battle) strike(actor, target *Combatant, verb string, power float64, typ types.DamageType, element types.Element, s *types.Skill) DamageResult {
	res := target.TakeDamage(power, actor, typ, element, baseHitRate, DefaultCritMultiplier)
	switch res.Outcome {
	case Miss:
		b.say("%s %s %s but misses.", actor.Name, verb, target.Name)
	case Critical:
		b.say("%s %s %s. Critical! %d damage.", actor.Name, verb, target.Name, res.Damage)
	default:
		b.say("%s %s %s for %d damage.", actor.Name, verb, target.Name, res.Damage)
	}
	if res.Revived {
		b.say("%s clings to life!", target.Name)
	}
	if !target.Alive() {
		b.say("%s is defeated.", target.Name)
	}
	fields := []zap.Field{
		zap.String("actor", actor.ID),
		zap.String("target", target.ID),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("damage", res.Damage),
	}
	if s != nil {
		fields = append(fields, zap.String("skill", s.ID))
	}
	b.log.Debug("strike", fields...)
	return res
}

// useItem consumes one item from the inventory and applies its effect.
func (b *Battle) useItem(actor, target *Combatant, it *types.Item) {
	if !b.deps.State.ConsumeItem(it.ID) {
		b.say("No %s left.", it.Name)
		return
	}
	b.say("%s uses %s on %s.", actor.Name, it.Name, target.Name)

	kind, arg, _ := strings.Cut(it.Effect, ":")
	switch kind {
	case "heal_hp", "heal_wp", "heal_jp":
		n, err := strconv.Atoi(arg)
		if err != nil {
			b.log.Warn("bad item effect", zap.String("item", it.ID), zap.String("effect", it.Effect))
			return
		}
		pool := strings.TrimPrefix(kind, "heal_")
		got := target.Restore(pool, n)
		b.say("%s recovers %d %s.", target.Name, got, strings.ToUpper(pool))
	case "cure":
		if target.RemoveStatusEffect(arg) {
			b.say("%s is cured.", target.Name)
		} else {
			b.say("Nothing happens.")
		}
	default:
		b.say("Nothing happens.")
	}
}

// enemyTurn runs the enemy AI: with probability 0.6 a random usable skill,
// otherwise a basic attack, against a random living ally.
func (b *Battle) enemyTurn(c *Combatant) {
	allies := living(b.Allies)
	if len(allies) == 0 {
		return
	}
	var usable []*types.Skill
	if def, ok := b.deps.Store.Enemy.Get(c.EnemyID); ok {
		for _, id := range def.Skills {
			s, ok := b.deps.Store.Skill.Get(id)
			if !ok {
				continue
			}
			if !c.CanAfford(s.Cost) || (s.Type == types.Magical && c.IsSilenced()) {
				continue
			}
			usable = append(usable, s)
		}
	}

	useSkill := b.deps.Rand.Float64() < enemySkillRate
	if useSkill && len(usable) > 0 {
		s := usable[intn(b.deps.Rand, len(usable))]
		target := allies[intn(b.deps.Rand, len(allies))]
		c.Pay(s.Cost)
		b.useSkill(c, target, s)
		return
	}
	target := allies[intn(b.deps.Rand, len(allies))]
	b.strike(c, target, "attacks", attackPower, types.Physical, types.Slash, nil)
}
