package loader

import (
	"fmt"
	"sort"

	"github.com/nathoo/sparksaga/types"
)

// checkIntegrity cross-references the indexed corpus. Every unresolved
// id is a warning; nothing here is fatal.
func checkIntegrity(s *Store, logs *Logs) {
	dangling := func(code, kind, owner, field, ref string) {
		logs.warn(code, owner, fmt.Sprintf("%s %q references unknown %s %q", kind, owner, field, ref))
	}

	for _, sk := range s.Skill.All {
		for _, se := range sk.StatusEffects {
			if !s.StatusEffects.Has(se) {
				dangling(CodeDanglingStatus, "skill", sk.ID, "status effect", se)
			}
		}
	}

	for _, en := range s.Enemy.All {
		for _, sk := range en.Skills {
			if !s.Skill.Has(sk) {
				dangling(CodeDanglingSkill, "enemy", en.ID, "skill", sk)
			}
		}
	}

	for _, p := range s.Party.All {
		if !s.Formation.Has(p.Formation) {
			dangling(CodeDanglingFormation, "party", p.ID, "formation", p.Formation)
		}
		for _, m := range p.Members {
			if m.Equipment.Weapon != "" && !s.Weapon.Has(m.Equipment.Weapon) {
				dangling(CodeDanglingWeapon, "party member", m.ID, "weapon", m.Equipment.Weapon)
			}
			if m.Equipment.Armor != "" && !s.Armor.Has(m.Equipment.Armor) {
				dangling(CodeDanglingArmor, "party member", m.ID, "armor", m.Equipment.Armor)
			}
			for _, c := range m.Commands {
				for _, sk := range c.Skills {
					if !s.Skill.Has(sk) {
						dangling(CodeDanglingSkill, "party member", m.ID, "skill", sk)
					}
				}
				for _, it := range c.Items {
					if !s.Item.Has(it.ID) {
						dangling(CodeDanglingItem, "party member", m.ID, "item", it.ID)
					}
				}
			}
		}
	}

	for _, e := range s.Encounter.All {
		if e.PlayerPartyID != "" && !s.Party.Has(e.PlayerPartyID) {
			dangling(CodeDanglingParty, "encounter", e.ID, "party", e.PlayerPartyID)
		}
		for _, en := range e.Enemies {
			if !s.Enemy.Has(en.EnemyID) {
				dangling(CodeDanglingEnemy, "encounter", e.ID, "enemy", en.EnemyID)
			}
		}
		for _, it := range e.Rewards.Items {
			if !s.Item.Has(it.ID) {
				dangling(CodeDanglingItem, "encounter", e.ID, "item", it.ID)
			}
		}
		for _, lt := range e.Rewards.LootTables {
			if !s.LootTable.Has(lt) {
				dangling(CodeDanglingLootTable, "encounter", e.ID, "loot table", lt)
			}
		}
		for _, qp := range e.QuestProgress {
			if !s.Quest.Has(qp.QuestID) {
				dangling(CodeDanglingQuest, "encounter", e.ID, "quest", qp.QuestID)
			}
		}
	}

	affixes := make(map[string]bool, len(s.Balance.AffixKeys))
	for _, k := range s.Balance.AffixKeys {
		affixes[k] = true
	}
	for _, w := range s.Weapon.All {
		for _, op := range w.Op {
			if !affixes[op] {
				dangling(CodeDanglingAffixKey, "weapon", w.ID, "affix key", op)
			}
		}
	}

	for _, ev := range s.Event.All {
		for _, n := range ev.Nodes {
			switch body := n.Body.(type) {
			case *types.QuestStartNode:
				if !s.Quest.Has(body.QuestID) {
					dangling(CodeDanglingQuest, "event", ev.ID, "quest", body.QuestID)
				}
			case *types.QuestUpdateNode:
				if !s.Quest.Has(body.QuestID) {
					dangling(CodeDanglingQuest, "event", ev.ID, "quest", body.QuestID)
				}
			case *types.RewardNode:
				if !s.Item.Has(body.ItemID) {
					dangling(CodeDanglingItem, "event", ev.ID, "item", body.ItemID)
				}
			}
		}
	}

	for _, em := range s.EventMap.All {
		if em.Type == types.MapConversation && !s.Event.Has(em.ConversationID) {
			dangling(CodeDanglingEvent, "event-map entry", em.ID, "conversation", em.ConversationID)
		}
		for _, eff := range em.Effects {
			switch body := eff.Body.(type) {
			case *types.GiveItemEffect:
				if !s.Item.Has(body.ItemID) {
					dangling(CodeDanglingItem, "event-map entry", em.ID, "item", body.ItemID)
				}
			case *types.QuestUpdateEffect:
				if !s.Quest.Has(body.QuestID) {
					dangling(CodeDanglingQuest, "event-map entry", em.ID, "quest", body.QuestID)
				}
			}
		}
	}

	for _, q := range s.Quest.All {
		for _, it := range q.Rewards.Items {
			if !s.Item.Has(it.ID) {
				dangling(CodeDanglingItem, "quest", q.ID, "item", it.ID)
			}
		}
	}

	for _, lt := range s.LootTable.All {
		for _, e := range lt.Entries {
			if !s.Item.Has(e.ItemID) {
				dangling(CodeDanglingItem, "loot table", lt.ID, "item", e.ItemID)
			}
		}
	}

	for _, sh := range s.Shop.All {
		for _, e := range sh.Items {
			switch e.Type {
			case types.ShopWeapon:
				if !s.Weapon.Has(e.ID) {
					dangling(CodeDanglingWeapon, "shop", sh.ID, "weapon", e.ID)
				}
			case types.ShopArmor:
				if !s.Armor.Has(e.ID) {
					dangling(CodeDanglingArmor, "shop", sh.ID, "armor", e.ID)
				}
			default:
				if !s.Item.Has(e.ID) {
					dangling(CodeDanglingItem, "shop", sh.ID, "item", e.ID)
				}
			}
		}
	}

	for _, f := range s.Faction.All {
		for _, th := range f.Thresholds {
			for _, eff := range th.Effects {
				if !s.Quest.Has(eff.UnlockQuestID) {
					dangling(CodeDanglingQuest, "faction", f.ID, "quest", eff.UnlockQuestID)
				}
			}
		}
	}

	ranks := make([]string, 0, len(s.ER.Effects))
	for rank := range s.ER.Effects {
		ranks = append(ranks, rank)
	}
	sort.Strings(ranks)
	for _, rank := range ranks {
		for _, eff := range s.ER.Effects[rank] {
			if !s.hasAnyID(eff.TargetID) {
				dangling(CodeDanglingERTarget, "er rank", rank, "target", eff.TargetID)
			}
		}
	}
}

// hasAnyID reports whether id names a skill, weapon, armor, item or quest.
func (s *Store) hasAnyID(id string) bool {
	return s.Skill.Has(id) || s.Weapon.Has(id) || s.Armor.Has(id) ||
		s.Item.Has(id) || s.Quest.Has(id)
}

// checkLocaleParity warns for every reference-locale key that another
// locale lacks.
func checkLocaleParity(s *Store, logs *Logs) {
	ref, ok := s.Locales[s.ReferenceLocale]
	if !ok {
		return
	}
	keys := make([]string, 0, len(ref))
	for k := range ref {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make([]string, 0, len(s.Locales))
	for name := range s.Locales {
		if name != s.ReferenceLocale {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		tbl := s.Locales[name]
		for _, k := range keys {
			if _, ok := tbl[k]; !ok {
				logs.warn(CodeMissingPrefix+k, name,
					fmt.Sprintf("locale %q is missing key %q", name, k))
			}
		}
	}
}
