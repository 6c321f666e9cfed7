package hall

import (
	"encoding/json"
)

// Store keys of the per-account flags
const (
	KeyAutoResurrect   = "复活重打"
	KeyLodgeHeal       = "客房补血"
	KeyAutoBuyAttempts = "自动买次数"
	KeySwitchOnFailure = "失败切换"
)

// AccountSettings is the per-account hall configuration. It is read once when
// a session starts; edits during a run are not observed.
type AccountSettings struct {
	// Strategies maps hall to its raw strategy string. A missing hall or the
	// skip marker means the hall is not run.
	Strategies             map[Name]string
	AutoResurrect          bool
	LodgeHealEvery10Floors bool
	AutoBuyAttempts        bool
	SwitchOnFailure        bool
}

// DefaultSettings returns the settings a new account starts with
func DefaultSettings() *AccountSettings {
	strategies := make(map[Name]string, len(declaredOrder))
	for _, h := range declaredOrder {
		strategies[h] = ""
	}
	strategies[NamePingWo] = SkipMarker

	return &AccountSettings{
		Strategies:      strategies,
		SwitchOnFailure: true,
	}
}

// MarshalJSON writes the flat store layout: hall names and flag keys side by side
func (s AccountSettings) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(s.Strategies)+4)
	for h, v := range s.Strategies {
		flat[string(h)] = v
	}
	flat[KeyAutoResurrect] = s.AutoResurrect
	flat[KeyLodgeHeal] = s.LodgeHealEvery10Floors
	flat[KeyAutoBuyAttempts] = s.AutoBuyAttempts
	flat[KeySwitchOnFailure] = s.SwitchOnFailure
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat store layout. Unknown keys are ignored.
func (s *AccountSettings) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	out := AccountSettings{Strategies: make(map[Name]string)}
	flags := map[string]*bool{
		KeyAutoResurrect:   &out.AutoResurrect,
		KeyLodgeHeal:       &out.LodgeHealEvery10Floors,
		KeyAutoBuyAttempts: &out.AutoBuyAttempts,
		KeySwitchOnFailure: &out.SwitchOnFailure,
	}

	for k, raw := range flat {
		if dst, ok := flags[k]; ok {
			if err := json.Unmarshal(raw, dst); err != nil {
				return err
			}
			continue
		}
		if name := Name(k); name.Valid() {
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			out.Strategies[name] = v
		}
	}

	*s = out
	return nil
}
