package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daryltucker/wst-etc/internal/model"
)

// ErrNoConfiguration is returned when no instrument-channel pair was selected.
var ErrNoConfiguration = errors.New("no configuration selected")

// NoConfigurationMessage is shown to the user instead of running a batch.
const NoConfigurationMessage = "ERROR: No configuration selected. Please select at least one instrument-channel pair."

// Selection is one parsed "<instrument>-<channel>" token.
type Selection struct {
	Instrument string
	Channel    string
}

// ParseSelection splits every token into an instrument and a channel.
// Channel membership is not checked; the backend reports invalid pairs.
func ParseSelection(tokens []string) ([]Selection, error) {
	if len(tokens) == 0 {
		return nil, ErrNoConfiguration
	}
	out := make([]Selection, 0, len(tokens))
	for _, tok := range tokens {
		parts := strings.Split(tok, "-")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid configuration %q: expected <instrument>-<channel>", tok)
		}
		out = append(out, Selection{Instrument: parts[0], Channel: parts[1]})
	}
	return out, nil
}

// Expand returns one ParameterSet per selected pair, each a copy of base with
// INS and CH set.
func Expand(tokens []string, base model.ParameterSet) ([]model.ParameterSet, error) {
	sel, err := ParseSelection(tokens)
	if err != nil {
		return nil, err
	}
	out := make([]model.ParameterSet, 0, len(sel))
	for _, s := range sel {
		ps := base.Clone()
		ps[model.KeyInstrument] = model.StringValue(s.Instrument)
		ps[model.KeyChannel] = model.StringValue(s.Channel)
		out = append(out, ps)
	}
	return out, nil
}
