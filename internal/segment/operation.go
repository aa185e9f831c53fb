package segment

import (
	"fmt"
	"strings"
)

// Operation selects which stages a run performs after validation.
type Operation string

const (
	OpValidate Operation = "validate"
	OpSegment  Operation = "segment"
	OpToc      Operation = "toc"
)

type stages struct {
	sections bool
	toc      bool // forced on; otherwise Config.CreateToc decides
}

var operations = map[Operation]stages{
	OpValidate: {},
	OpSegment:  {sections: true},
	OpToc:      {toc: true},
}

// ParseOperation resolves a user-supplied operation name.
func ParseOperation(name string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(name)))
	if op == "" {
		return OpSegment, nil
	}
	if _, ok := operations[op]; !ok {
		return "", fmt.Errorf("unknown operation %q (allowed: validate, segment, toc)", name)
	}
	return op, nil
}
