package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Opt marks whether a payload field is present on the wire. A present field
// holding a nil pointer is sent as null; an absent field is omitted.
type Opt[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: v}
}

// CampaignPayload is the body of POST /campaigns and PATCH /campaigns/{id}.
type CampaignPayload struct {
	Name           Opt[string]
	Channel        Opt[Channel]
	CreatedBy      Opt[string]
	CustomerIDs    Opt[[]int64]
	FilterRules    Opt[*KVMap]
	RunImmediately Opt[bool]
	ScheduleTime   Opt[*time.Time]
}

func (p CampaignPayload) IsEmpty() bool {
	return !p.Name.Set && !p.Channel.Set && !p.CreatedBy.Set && !p.CustomerIDs.Set &&
		!p.FilterRules.Set && !p.RunImmediately.Set && !p.ScheduleTime.Set
}

func (p CampaignPayload) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("name", p.Name.Set, p.Name.Value)
	w.field("channel", p.Channel.Set, p.Channel.Value)
	w.field("created_by", p.CreatedBy.Set, p.CreatedBy.Value)
	w.field("customer_ids", p.CustomerIDs.Set, nonNilIDs(p.CustomerIDs.Value))
	w.field("filter_rules", p.FilterRules.Set, p.FilterRules.Value)
	w.field("run_immediately", p.RunImmediately.Set, p.RunImmediately.Value)
	w.field("schedule_time", p.ScheduleTime.Set, p.ScheduleTime.Value)
	return w.bytes()
}

func (p *CampaignPayload) UnmarshalJSON(b []byte) error {
	fields, err := objectFields(b)
	if err != nil {
		return err
	}
	return firstError(
		decodeOpt(fields, "name", &p.Name),
		decodeOpt(fields, "channel", &p.Channel),
		decodeOpt(fields, "created_by", &p.CreatedBy),
		decodeOpt(fields, "customer_ids", &p.CustomerIDs),
		decodeOpt(fields, "filter_rules", &p.FilterRules),
		decodeOpt(fields, "run_immediately", &p.RunImmediately),
		decodeOpt(fields, "schedule_time", &p.ScheduleTime),
	)
}

// StepPayload is the body of POST /campaigns/{id}/steps and PATCH /steps/{id}.
type StepPayload struct {
	OrderNo          Opt[int]
	Channel          Opt[Channel]
	DelayDays        Opt[int]
	FilterRules      Opt[*KVMap]
	TemplateID       Opt[*int64]
	Subject          Opt[string]
	Body             Opt[string]
	ContentSID       Opt[string]
	ContentVariables Opt[*KVMap]
}

func (p StepPayload) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("order_no", p.OrderNo.Set, p.OrderNo.Value)
	w.field("channel", p.Channel.Set, p.Channel.Value)
	w.field("delay_days", p.DelayDays.Set, p.DelayDays.Value)
	w.field("filter_rules", p.FilterRules.Set, p.FilterRules.Value)
	w.field("template_id", p.TemplateID.Set, p.TemplateID.Value)
	w.field("subject", p.Subject.Set, p.Subject.Value)
	w.field("body", p.Body.Set, p.Body.Value)
	w.field("content_sid", p.ContentSID.Set, p.ContentSID.Value)
	w.field("content_variables", p.ContentVariables.Set, p.ContentVariables.Value)
	return w.bytes()
}

func (p *StepPayload) UnmarshalJSON(b []byte) error {
	fields, err := objectFields(b)
	if err != nil {
		return err
	}
	return firstError(
		decodeOpt(fields, "order_no", &p.OrderNo),
		decodeOpt(fields, "channel", &p.Channel),
		decodeOpt(fields, "delay_days", &p.DelayDays),
		decodeOpt(fields, "filter_rules", &p.FilterRules),
		decodeOpt(fields, "template_id", &p.TemplateID),
		decodeOpt(fields, "subject", &p.Subject),
		decodeOpt(fields, "body", &p.Body),
		decodeOpt(fields, "content_sid", &p.ContentSID),
		decodeOpt(fields, "content_variables", &p.ContentVariables),
	)
}

// ExecutionPayload is the body of execution create and update requests.
type ExecutionPayload struct {
	StepID     Opt[int64]
	CustomerID Opt[int64]
	Channel    Opt[Channel]
	Status     Opt[string]
	MessageID  Opt[string]
	Note       Opt[string]
}

func (p ExecutionPayload) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("step_id", p.StepID.Set, p.StepID.Value)
	w.field("customer_id", p.CustomerID.Set, p.CustomerID.Value)
	w.field("channel", p.Channel.Set, p.Channel.Value)
	w.field("status", p.Status.Set, p.Status.Value)
	w.field("message_id", p.MessageID.Set, p.MessageID.Value)
	w.field("note", p.Note.Set, p.Note.Value)
	return w.bytes()
}

func (p *ExecutionPayload) UnmarshalJSON(b []byte) error {
	fields, err := objectFields(b)
	if err != nil {
		return err
	}
	return firstError(
		decodeOpt(fields, "step_id", &p.StepID),
		decodeOpt(fields, "customer_id", &p.CustomerID),
		decodeOpt(fields, "channel", &p.Channel),
		decodeOpt(fields, "status", &p.Status),
		decodeOpt(fields, "message_id", &p.MessageID),
		decodeOpt(fields, "note", &p.Note),
	)
}

/* ------------------------------ wire helpers ------------------------------ */

type objectWriter struct {
	buf   bytes.Buffer
	count int
	err   error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(name string, set bool, v any) {
	if !set || w.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.WriteByte('"')
	w.buf.WriteString(name)
	w.buf.WriteString(`":`)
	w.buf.Write(b)
	w.count++
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

func objectFields(b []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeOpt[T any](fields map[string]json.RawMessage, name string, dst *Opt[T]) error {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return &ValidationError{Field: name, Message: err.Error()}
	}
	*dst = Opt[T]{Set: true, Value: v}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
