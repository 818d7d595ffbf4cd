package loader

import (
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Level is the severity of a load diagnostic.
type Level string

const (
	Fatal Level = "FATAL"
	Warn  Level = "WARN"
)

// Fatal diagnostic codes.
const (
	CodeFileNotFound     = "FILE_NOT_FOUND"
	CodeUnexpected       = "UNEXPECTED_ERROR"
	CodeSchemaValidation = "SCHEMA_VALIDATION_ERROR"
	CodeSchemaLoading    = "SCHEMA_LOADING_ERROR"
)

// Warning diagnostic codes, one per reference kind.
const (
	CodeDanglingStatus    = "DANGLING_STATUS_REFERENCE"
	CodeDanglingSkill     = "DANGLING_SKILL_REFERENCE"
	CodeDanglingFormation = "DANGLING_FORMATION_REFERENCE"
	CodeDanglingWeapon    = "DANGLING_WEAPON_REFERENCE"
	CodeDanglingArmor     = "DANGLING_ARMOR_REFERENCE"
	CodeDanglingItem      = "DANGLING_ITEM_REFERENCE"
	CodeDanglingParty     = "DANGLING_PARTY_REFERENCE"
	CodeDanglingEnemy     = "DANGLING_ENEMY_REFERENCE"
	CodeDanglingLootTable = "DANGLING_LOOT_TABLE_REFERENCE"
	CodeDanglingQuest     = "DANGLING_QUEST_REFERENCE"
	CodeDanglingAffixKey  = "DANGLING_AFFIX_KEY_REFERENCE"
	CodeDanglingEvent     = "DANGLING_EVENT_REFERENCE"
	CodeDanglingERTarget  = "DANGLING_ER_TARGET_ID_REFERENCE"

	// CodeMissingPrefix is followed by the i18n key that a locale lacks.
	CodeMissingPrefix = "MISSING:"
)

// Log is one structured diagnostic produced while loading content.
type Log struct {
	Level Level
	Code  string
	ID    string
	Msg   string
}

// Logs is the diagnostic list returned by Load.
type Logs []Log

func (l *Logs) fatal(code, id, msg string) {
	*l = append(*l, Log{Level: Fatal, Code: code, ID: id, Msg: msg})
}

func (l *Logs) warn(code, id, msg string) {
	*l = append(*l, Log{Level: Warn, Code: code, ID: id, Msg: msg})
}

// HasFatal reports whether any entry is FATAL. The runtime refuses to
// start when it is true.
func (l Logs) HasFatal() bool {
	for _, e := range l {
		if e.Level == Fatal {
			return true
		}
	}
	return false
}

// Fatals returns only the FATAL entries.
func (l Logs) Fatals() Logs {
	return l.filter(func(e Log) bool { return e.Level == Fatal })
}

// Warnings returns only the WARN entries.
func (l Logs) Warnings() Logs {
	return l.filter(func(e Log) bool { return e.Level == Warn })
}

// ByCode returns the entries carrying the given code.
func (l Logs) ByCode(code string) Logs {
	return l.filter(func(e Log) bool { return e.Code == code })
}

func (l Logs) filter(keep func(Log) bool) Logs {
	var out Logs
	for _, e := range l {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Err folds every FATAL message into a single error, or returns nil.
func (l Logs) Err() error {
	var err error
	for _, e := range l.Fatals() {
		err = multierr.Append(err, errors.New(e.Code+": "+e.Msg))
	}
	return err
}

// emit writes every entry to the logger at the matching level.
func (l Logs) emit(log *zap.Logger) {
	for _, e := range l {
		fields := []zap.Field{zap.String("code", e.Code)}
		if e.ID != "" {
			fields = append(fields, zap.String("id", e.ID))
		}
		if e.Level == Fatal {
			log.Error(e.Msg, fields...)
		} else {
			log.Warn(e.Msg, fields...)
		}
	}
}
