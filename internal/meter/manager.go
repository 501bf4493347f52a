package meter

import (
	"github.com/sirupsen/logrus"

	"github.com/travnick/wmbusmeters/internal/address"
	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/errs"
	"github.com/travnick/wmbusmeters/internal/obslog"
	"github.com/travnick/wmbusmeters/internal/telegram"
)

// HandleResult reports one meter's outcome handling a single telegram,
// passed to every Listener regardless of whether the meter actually
// decoded anything.
type HandleResult struct {
	Meter      *MeterInfo
	Matched    bool
	ExactMatch bool
	Handled    bool
	Entries    *dvparser.Entries
	Err        error
}

// Listener observes every Handle call's outcome across all meters it
// touched.
type Listener func(t *telegram.Telegram, results []HandleResult)

// Manager multiplexes an incoming telegram stream across configured
// meters and templates. It owns its meters,
// templates and driver registry exclusively — no mutation happens from
// outside the ingestion call.
type Manager struct {
	registry  *Registry
	meters    []*MeterInfo
	templates []*MeterInfo
	listeners []Listener
	log       *logrus.Logger
}

// NewManager builds a Manager bound to reg. Pass nil for log to use
// internal/obslog's shared default.
func NewManager(reg *Registry, log *logrus.Logger) *Manager {
	if log == nil {
		log = obslog.Default
	}
	return &Manager{registry: reg, log: log}
}

// AddTemplate registers a meter template, matched greedily against every
// telegram that no instantiated meter handles.
func (m *Manager) AddTemplate(t *MeterInfo) {
	m.templates = append(m.templates, t)
}

// AddMeter registers a concrete, already-addressed meter.
func (m *Manager) AddMeter(mi *MeterInfo) {
	m.meters = append(m.meters, mi)
}

// AddListener registers a telegram listener.
func (m *Manager) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Meters returns the manager's currently instantiated meters, in insertion
// order (instantiated-from-template meters appended at the end).
func (m *Manager) Meters() []*MeterInfo {
	out := make([]*MeterInfo, len(m.meters))
	copy(out, m.meters)
	return out
}

// Handle parses raw as a telegram and dispatches it: instantiated meters
// are tried first in insertion order; if none handled it and none matched
// it exactly, every template is tried in order and any match spawns a new
// meter.
func (m *Manager) Handle(raw []byte) ([]HandleResult, error) {
	t, err := telegram.Parse(raw)
	if err != nil {
		m.log.WithError(err).Warn("failed to parse telegram header")
		return nil, err
	}
	log := m.log.WithField("id", t.MeterIDString())

	var results []HandleResult
	handledAny := false
	exactAny := false
	for _, mi := range m.meters {
		r := m.tryHandle(mi, t)
		if r.Err != nil {
			log.WithField("meter", mi.Name).WithField("driver", mi.DriverName).WithError(r.Err).Warn("meter did not handle telegram")
		}
		results = append(results, r)
		if r.Handled {
			handledAny = true
		}
		if r.ExactMatch {
			exactAny = true
		}
	}

	if !handledAny && !exactAny {
		results = append(results, m.spawnFromTemplates(t)...)
	}

	for _, l := range m.listeners {
		l(t, results)
	}
	return results, nil
}

// tryHandle attempts to accept and decode t against mi: a meter accepts
// iff its address expressions match; it handles iff, additionally, it
// decrypts (when keyed) and parses without error.
func (m *Manager) tryHandle(mi *MeterInfo, t *telegram.Telegram) HandleResult {
	matched, usedWildcard := address.MatchTelegram(t.Addresses, mi.Addresses)
	if !matched {
		return HandleResult{Meter: mi}
	}
	result := HandleResult{Meter: mi, Matched: true, ExactMatch: !usedWildcard}

	if t.TPL.Present && t.TPL.SecurityMode != 0 {
		if len(mi.Key) == 0 {
			result.Err = errs.New(errs.KindDecryptError, "telegram for meter %q is encrypted but no key is configured", mi.Name)
			return result
		}
		if err := telegram.Decrypt(t, mi.Key); err != nil {
			result.Err = err
			return result
		}
	}

	entries, err := dvparser.Parse(t.Payload)
	if err != nil {
		result.Entries = entries
		result.Err = err
		return result
	}

	mi.applyEntries(m.registry, t.CanonicalAddress(), entries)
	result.Entries = entries
	result.Handled = true
	return result
}

// spawnFromTemplates implements the greedy template match:
// every template whose address expressions match t's addresses spawns an
// independent meter, each then immediately given a chance to handle t.
func (m *Manager) spawnFromTemplates(t *telegram.Telegram) []HandleResult {
	canonical := t.CanonicalAddress()
	var results []HandleResult
	for _, tpl := range m.templates {
		matched, _ := address.MatchTelegram(t.Addresses, tpl.Addresses)
		if !matched {
			continue
		}
		mi, err := instantiate(tpl, canonical)
		if err != nil {
			m.log.WithField("meter", tpl.Name).WithError(err).Warn("cannot instantiate meter from template")
			continue
		}
		if mi.DriverName == "auto" {
			if _, ok := m.registry.AutoPick(canonical.Mfct, canonical.Type, canonical.Version); !ok {
				m.log.WithField("meter", mi.Name).WithField("driver", mi.DriverName).Warnf("unknown driver (mfct=%04x type=%02x version=%02x)", canonical.Mfct, canonical.Type, canonical.Version)
			}
		}
		m.meters = append(m.meters, mi)
		results = append(results, m.tryHandle(mi, t))
	}
	return results
}

// instantiate clones tpl into a fresh meter and appends the telegram's
// identity expression per the template's identity-append policy.
func instantiate(tpl *MeterInfo, canonical address.Address) (*MeterInfo, error) {
	if tpl.IdentityMode == address.IdentityInvalid {
		return nil, errs.New(errs.KindParseError, "template %q has an invalid identity mode", tpl.Name)
	}
	mi := tpl.clone()
	if tpl.IdentityMode != address.IdentityNone {
		var identity address.AddressExpression
		identity.TrimToIdentity(tpl.IdentityMode, canonical)
		mi.Addresses = append(mi.Addresses, identity)
	}
	return mi, nil
}
