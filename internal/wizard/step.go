package wizard

import (
	"errors"
	"fmt"
)

// ErrUnknownStep is returned by ParseStep for names outside the flow.
var ErrUnknownStep = errors.New("unknown step")

// Step is one stage of the authoring flow.
type Step int

const (
	Basics Step = iota
	Memories
	Letter
	Design
	Privacy
	Review
)

// Steps lists the flow in its fixed order.
var Steps = []Step{Basics, Memories, Letter, Design, Privacy, Review}

var stepNames = [...]string{"basics", "memories", "letter", "design", "privacy", "review"}

func (s Step) String() string {
	if s < Basics || s > Review {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// ParseStep converts a step name into a Step.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

// Field is a proposal field edited through Set.
type Field string

const (
	FieldCreatorName  Field = "creatorName"
	FieldPartnerName  Field = "partnerName"
	FieldTitle        Field = "title"
	FieldMainImageURL Field = "mainImageUrl"
	FieldMessage      Field = "message"
	FieldTheme        Field = "theme"
	FieldMusicURL     Field = "musicUrl"
	FieldPassword     Field = "password"
	FieldExpiryHours  Field = "expiryHours"
)

// fieldSteps maps each editable field to the step that owns it.
var fieldSteps = map[Field]Step{
	FieldCreatorName:  Basics,
	FieldPartnerName:  Basics,
	FieldTitle:        Basics,
	FieldMainImageURL: Basics,
	FieldMessage:      Letter,
	FieldTheme:        Design,
	FieldMusicURL:     Design,
	FieldPassword:     Privacy,
	FieldExpiryHours:  Privacy,
}

// ErrUnknownField is returned for field names the flow doesn't edit.
var ErrUnknownField = errors.New("unknown field")

// ParseField converts a field name into a Field.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := fieldSteps[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Step returns the step that owns the field.
func (f Field) Step() Step {
	return fieldSteps[f]
}

// FieldsFor returns the fields edited in step s, in display order.
func FieldsFor(s Step) []Field {
	var out []Field
	for _, f := range []Field{
		FieldCreatorName, FieldPartnerName, FieldTitle, FieldMainImageURL,
		FieldMessage, FieldTheme, FieldMusicURL, FieldPassword, FieldExpiryHours,
	} {
		if fieldSteps[f] == s {
			out = append(out, f)
		}
	}
	return out
}

// MemoryField is a Memory field edited through EditMemory.
type MemoryField string

const (
	MemoryDate        MemoryField = "date"
	MemoryTitle       MemoryField = "title"
	MemoryDescription MemoryField = "description"
	MemoryImageURL    MemoryField = "imageUrl"
)

// ParseMemoryField converts a name into a MemoryField.
func ParseMemoryField(name string) (MemoryField, error) {
	switch f := MemoryField(name); f {
	case MemoryDate, MemoryTitle, MemoryDescription, MemoryImageURL:
		return f, nil
	}
	return "", fmt.Errorf("%w: memory %q", ErrUnknownField, name)
}
