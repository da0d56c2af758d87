package document

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// WorldLaw is a named flag in the worldLaws list
type WorldLaw struct {
	Name  string
	Value bool
}

type worldLawJSON struct {
	Name    string `json:"name"`
	BoolVal *bool  `json:"boolVal,omitempty"`
}

// MarshalJSON writes a true law as just its name; false is spelled out with
// boolVal
func (l WorldLaw) MarshalJSON() ([]byte, error) {
	v := worldLawJSON{Name: l.Name}
	if !l.Value {
		v.BoolVal = new(bool)
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *WorldLaw) UnmarshalJSON(b []byte) error {
	var v worldLawJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	l.Name = v.Name
	l.Value = v.BoolVal == nil || *v.BoolVal
	return nil
}

func (l WorldLaw) object() map[string]interface{} {
	o := map[string]interface{}{"name": l.Name}
	if !l.Value {
		o["boolVal"] = false
	}
	return o
}

// ParseWorldLaws reads "<name> <value>" lines from r. A value of "true", in
// any case, sets the law; anything else clears it. Lines without a space are
// skipped.
func ParseWorldLaws(r io.Reader) ([]WorldLaw, error) {
	var laws []WorldLaw

	s := bufio.NewScanner(r)
	for s.Scan() {
		name, value, ok := strings.Cut(s.Text(), " ")
		if !ok {
			continue
		}
		laws = append(laws, WorldLaw{
			Name:  strings.TrimSpace(name),
			Value: strings.EqualFold(strings.TrimSpace(value), "true"),
		})
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return laws, nil
}

// LoadWorldLaws reads world laws from the named file
func LoadWorldLaws(file string) ([]WorldLaw, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read world laws file %s: %w", file, err)
	}
	defer f.Close()

	laws, err := ParseWorldLaws(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read world laws file %s: %w", file, err)
	}

	return laws, nil
}

// AppendWorldLaws adds laws to the end of worldLaws.list, creating an empty
// list first if the document doesn't have one
func (d *Document) AppendWorldLaws(laws []WorldLaw) {
	wl, ok := d.fields[FieldWorldLaws].(map[string]interface{})
	if !ok {
		wl = map[string]interface{}{}
		d.fields[FieldWorldLaws] = wl
	}

	list, ok := wl[FieldList].([]interface{})
	if !ok {
		// Non-nil so an empty list renders as []
		list = []interface{}{}
	}

	for _, l := range laws {
		list = append(list, l.object())
	}
	wl[FieldList] = list
}

// WorldLaws returns the laws currently in worldLaws.list
func (d *Document) WorldLaws() []WorldLaw {
	wl, _ := d.fields[FieldWorldLaws].(map[string]interface{})
	list, _ := wl[FieldList].([]interface{})

	laws := make([]WorldLaw, 0, len(list))
	for _, v := range list {
		o, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := o["name"].(string)
		value := true
		if b, ok := o["boolVal"].(bool); ok {
			value = b
		}
		laws = append(laws, WorldLaw{Name: name, Value: value})
	}

	return laws
}
