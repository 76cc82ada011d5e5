package outcome

import "fmt"

// Kind classifies the result of one installation attempt.
type Kind int

const (
	// KindSuccess means an executable was installed at Outcome.Path.
	KindSuccess Kind = iota
	// KindNotAvailable means the strategy has nothing to offer on this host
	// (no matching release asset, unsupported platform). Expected, not an
	// error; the orchestrator silently advances to the next strategy.
	KindNotAvailable
	// KindTransient means the strategy failed for a reason that another
	// strategy might avoid (network failure, disk error). Logged, then the
	// orchestrator advances.
	KindTransient
	// KindFatal means the run cannot recover: missing toolchain, missing
	// version-control client, compile error, or all fallbacks exhausted.
	KindFatal
)

// Outcome is the structured result of one installation attempt. Components
// return it instead of raising faults; only the orchestrator decides whether
// a given outcome ends the run or advances the fallback chain.
type Outcome struct {
	Kind Kind
	Path string
	Err  error
}

func Success(path string) Outcome    { return Outcome{Kind: KindSuccess, Path: path} }
func NotAvailable(err error) Outcome { return Outcome{Kind: KindNotAvailable, Err: err} }
func Transient(err error) Outcome    { return Outcome{Kind: KindTransient, Err: err} }
func Fatal(err error) Outcome        { return Outcome{Kind: KindFatal, Err: err} }

// Ok reports whether the attempt produced an installed executable.
func (o Outcome) Ok() bool { return o.Kind == KindSuccess }

func (o Outcome) String() string {
	switch o.Kind {
	case KindSuccess:
		return fmt.Sprintf("installed %s", o.Path)
	case KindNotAvailable:
		if o.Err != nil {
			return fmt.Sprintf("not available: %v", o.Err)
		}
		return "not available"
	case KindTransient:
		return fmt.Sprintf("failed: %v", o.Err)
	case KindFatal:
		return fmt.Sprintf("fatal: %v", o.Err)
	}
	return "unknown outcome"
}
