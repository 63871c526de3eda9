package settings

// Debouncer tracks the newest pending write per key. Every keystroke calls
// Next; when the delay for that call elapses the caller checks Live and only
// the last call of a burst goes through. Timers are therefore reset, never
// stacked. Not safe for concurrent use; it belongs to the event loop.
type Debouncer struct {
	seq map[string]uint64
}

func NewDebouncer() *Debouncer {
	return &Debouncer{seq: make(map[string]uint64)}
}

func (d *Debouncer) Next(key string) uint64 {
	d.seq[key]++
	return d.seq[key]
}

func (d *Debouncer) Live(key string, seq uint64) bool {
	return seq != 0 && d.seq[key] == seq
}

// Cancel invalidates whatever is pending for key.
func (d *Debouncer) Cancel(key string) {
	if _, ok := d.seq[key]; ok {
		d.seq[key]++
	}
}

// Reset invalidates everything pending.
func (d *Debouncer) Reset() {
	for k := range d.seq {
		d.seq[k]++
	}
}

func PrefixKey() string                { return "prefix" }
func LanguageKey(device string) string { return "language:" + device }
func OptionsKey(device string) string  { return "options:" + device }
