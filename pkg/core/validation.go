package core

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxTitleLength bounds record titles.
const MaxTitleLength = 500

var notBlank = validation.By(func(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

var knownStatus = validation.By(func(value any) error {
	status, _ := value.(TaskStatus)
	if !status.Valid() {
		return validation.NewError("validation_status", fmt.Sprintf("must be one of %v", Statuses))
	}
	return nil
})

// Validate checks a task creation request.
func (in TaskInput) Validate() error {
	return invalid(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, notBlank, validation.RuneLength(1, MaxTitleLength)),
	))
}

// Validate checks a task patch; absent fields are not checked.
func (p TaskPatch) Validate() error {
	return invalid(validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, notBlank, validation.RuneLength(1, MaxTitleLength)),
	))
}

// Validate checks a note creation request.
func (in NoteInput) Validate() error {
	return invalid(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, notBlank, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&in.Tags, validation.Each(validation.Required)),
	))
}

// Validate checks a note patch; absent fields are not checked.
func (p NotePatch) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, notBlank, validation.RuneLength(1, MaxTitleLength)),
	)
	if err == nil && p.Tags != nil {
		err = validation.Validate(*p.Tags, validation.Each(validation.Required))
		if err != nil {
			err = validation.Errors{"tags": err}
		}
	}
	return invalid(err)
}

// ValidateStatus checks that status names a board column.
func ValidateStatus(status TaskStatus) error {
	err := validation.Validate(status, knownStatus)
	if err != nil {
		err = validation.Errors{"status": err}
	}
	return invalid(err)
}

// invalid wraps validation failures into ErrInvalidInput, keeping the
// per-field messages.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}
