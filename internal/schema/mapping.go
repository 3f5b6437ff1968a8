package schema

import "github.com/hurou927/schema-sync/internal/jsonschema"

// MapField maps a non-array field to a column. The column is nullable
// unless the field is required.
//
//	string + date-time             -> timestamp
//	string + date                  -> date
//	string + time                  -> time
//	string + memo                  -> longtext
//	string (any other format)      -> text
//	boolean                        -> boolean
//	integer                        -> integer
//	number + precision>0 and scale -> decimal(precision, scale)
//	number                         -> float
func MapField(name string, f jsonschema.Field, required bool) (ColumnSpec, error) {
	t, err := mapType(name, f)
	if err != nil {
		return ColumnSpec{}, err
	}
	return ColumnSpec{
		Name:     name,
		Type:     t,
		Nullable: !required,
	}, nil
}

func mapType(name string, f jsonschema.Field) (SQLType, error) {
	switch f.Type {
	case jsonschema.TypeString:
		switch f.Format {
		case jsonschema.FormatDateTime:
			return Timestamp, nil
		case jsonschema.FormatDate:
			return Date, nil
		case jsonschema.FormatTime:
			return Time, nil
		case jsonschema.FormatMemo:
			return LongText, nil
		default:
			return Text, nil
		}
	case jsonschema.TypeBoolean:
		return Boolean, nil
	case jsonschema.TypeInteger:
		return Integer, nil
	case jsonschema.TypeNumber:
		if f.Precision > 0 && f.Scale != nil && *f.Scale >= 0 {
			return Decimal(f.Precision, *f.Scale), nil
		}
		return Float, nil
	default:
		return SQLType{}, &UnsupportedTypeError{Field: name, Type: string(f.Type)}
	}
}
