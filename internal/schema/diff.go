package schema

import "strings"

// TypeNamer renders a column type the way a backend reports it when
// introspecting, so that planned and live types compare as strings.
type TypeNamer func(ColumnSpec) string

// Diff compares the desired table against its live columns by name:
//
//   - planned columns missing from the table are added,
//   - live columns no longer planned are dropped,
//   - columns whose nullability or rendered type differ are altered.
//
// Managed columns (id, audit timestamps, parent_id) are neither added,
// altered nor dropped. Children of want are not considered.
//
// Unique keys are compared by their columns: planned keys missing from the
// table are added and live keys no longer planned are dropped. A key over an
// altered column is dropped and added again, since some databases refuse to
// change an indexed column.
func Diff(want TablePlan, live []Column, liveKeys []UniqueKey, typeName TypeNamer) AlterTable {
	op := AlterTable{Table: want.Name, Target: want}

	liveByName := make(map[string]Column, len(live))
	for _, c := range live {
		liveByName[c.Name] = c
	}

	for _, c := range want.Columns {
		if c.Managed {
			continue
		}
		l, ok := liveByName[c.Name]
		if !ok {
			op.Add = append(op.Add, c)
			continue
		}
		if l.Nullable != c.Nullable || !strings.EqualFold(strings.TrimSpace(l.DataType), typeName(c)) {
			op.Alter = append(op.Alter, ColumnChange{From: l, To: c})
		}
	}

	for _, l := range live {
		if _, planned := want.Column(l.Name); planned {
			continue
		}
		op.Drop = append(op.Drop, l)
	}

	op.AddUnique, op.DropUnique = diffUniqueKeys(want.UniqueKeys, liveKeys, op.Alter)
	return op
}

func diffUniqueKeys(want, live []UniqueKey, altered []ColumnChange) (add, drop []UniqueKey) {
	touches := func(k UniqueKey) bool {
		for _, ch := range altered {
			if k.Covers(ch.To.Name) {
				return true
			}
		}
		return false
	}

	for _, l := range live {
		planned := false
		for _, w := range want {
			if w.SameColumns(l) {
				planned = true
				break
			}
		}
		if !planned || touches(l) {
			drop = append(drop, l)
		}
	}

	for _, w := range want {
		present := false
		for _, l := range live {
			if w.SameColumns(l) {
				present = true
				break
			}
		}
		if !present || touches(w) {
			add = append(add, w)
		}
	}
	return add, drop
}
