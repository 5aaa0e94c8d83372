package stage

import "context"

// NewIdentity builds a stage that forwards payloads unchanged.
func NewIdentity(args []string) (Stage, error) {
	if err := parseFlags(newFlagSet("identity"), args); err != nil {
		return nil, err
	}
	return Func(func(_ context.Context, payload string) (string, error) {
		return payload, nil
	}), nil
}
