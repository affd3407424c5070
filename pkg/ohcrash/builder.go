// builder.go converts captured errors into normalized reports.

package ohcrash

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Attachment is call-site context for a report. It is either Props, merged
// key by key, or Labels, which becomes {"labels": [...]}.
type Attachment interface {
	applyTo(props Props)
}

func (p Props) applyTo(dst Props) {
	for k, v := range p {
		dst[k] = v
	}
}

// Labels is shorthand for Props{"labels": labels}.
type Labels []string

func (l Labels) applyTo(dst Props) {
	dst["labels"] = []string(l)
}

// RuntimeKey is the props key holding the runtime identity.
const RuntimeKey = "runtime"

// builder holds the fixed inputs of every report a client builds.
type builder struct {
	runtimeIdentity string
	globalProps     Props
	scrubber        *Scrubber
	startTime       time.Time
}

// MergeProps merges the runtime identity, the global props and the
// attachments in that order. The merge is shallow; later keys win.
func MergeProps(runtimeIdentity string, global Props, attachments ...Attachment) Props {
	props := make(Props, len(global)+1)
	props[RuntimeKey] = runtimeIdentity
	global.applyTo(props)
	for _, a := range attachments {
		if a != nil {
			a.applyTo(props)
		}
	}
	return props
}

// build creates a report for err. It never panics on nil or malformed errors.
func (b *builder) build(ctx context.Context, err error, channel Channel, attachments ...Attachment) Report {
	report := Report{
		Name:      errorName(err),
		Message:   errorMessage(err),
		Stack:     errorStack(err),
		Props:     MergeProps(b.runtimeIdentity, b.globalProps, attachments...),
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Channel:   channel,
		System:    CaptureSystemState(b.startTime),
	}

	if contextID, ok := ContextIDFromContext(ctx); ok {
		report.ContextID = &contextID
	}

	if b.scrubber != nil {
		report.Message = b.scrubber.ScrubMessage(report.Message)
		report.Stack = b.scrubber.ScrubStackTrace(report.Stack)
		report.Props = b.scrubber.ScrubProps(report.Props)
	}

	report.Fingerprint = Fingerprint(report)
	return report
}

// BuildReport normalizes err into a report without a client. It is what
// Client.Report uses, minus global props and scrubbing.
func BuildReport(ctx context.Context, err error, runtimeIdentity string, attachments ...Attachment) Report {
	b := &builder{runtimeIdentity: runtimeIdentity, startTime: processStart}
	return b.build(ctx, err, ChannelManual, attachments...)
}
