package types

import "fmt"

// Format selects the FormatProperties variant used to encode a topic's
// chunks. It is fixed at topic creation and stored in the catalog.
type Format int

const (
	FormatDefault Format = iota
	FormatRagged
	FormatImage
)

func (f Format) String() string {
	switch f {
	case FormatDefault:
		return "default"
	case FormatRagged:
		return "ragged"
	case FormatImage:
		return "image"
	default:
		return "unknown"
	}
}

// ParseFormat parses the snake_case wire representation of a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "default":
		return FormatDefault, nil
	case "ragged":
		return FormatRagged, nil
	case "image":
		return FormatImage, nil
	default:
		return 0, &UnknownFormatError{Value: s}
	}
}

// UnknownFormatError is returned by ParseFormat for an unrecognized value.
type UnknownFormatError struct {
	Value string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format: %q", e.Value)
}
