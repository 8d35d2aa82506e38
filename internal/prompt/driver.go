// Package prompt asks the CLI user for render inputs on a terminal.
package prompt

import (
	"context"
	"errors"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("prompt: aborted")

// PathQuestion asks for the template to render. Suggest, when set, completes
// a partial path on tab.
type PathQuestion struct {
	Suggest func(prefix string) []string
}

// RendererChoice is one renderer offered to the user.
type RendererChoice struct {
	Name        string
	ContentType string
}

// RendererQuestion asks which renderer to use, preselecting Current.
type RendererQuestion struct {
	Choices []RendererChoice
	Current string
}

// Field is one model entry typed by the user. Value is kept raw; Collect
// decides how to interpret it.
type Field struct {
	Name  string `survey:"name"`
	Value string `survey:"value"`
}

// Driver asks the questions Collect needs. Tests swap in a scripted driver.
type Driver interface {
	TemplatePath(ctx context.Context, q PathQuestion) (string, error)
	Renderer(ctx context.Context, q RendererQuestion) (string, error)
	// ModelField returns ok == false once the user has no more fields to add.
	ModelField(ctx context.Context) (field Field, ok bool, err error)
}

type surveyDriver struct{}

// NewSurveyDriver returns a Driver that prompts on the terminal.
func NewSurveyDriver() Driver {
	return surveyDriver{}
}

func (surveyDriver) TemplatePath(ctx context.Context, q PathQuestion) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	input := &survey.Input{
		Message: "Template path",
		Help:    "Relative to the templates directory, without extension or locale suffix.",
		Suggest: q.Suggest,
	}
	if err := survey.AskOne(input, &out, survey.WithValidator(survey.ComposeValidators(
		survey.Required,
		stringValidator(ValidateTemplatePath),
	))); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) Renderer(ctx context.Context, q RendererQuestion) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	names := make([]string, len(q.Choices))
	for i, choice := range q.Choices {
		names[i] = choice.Name
	}

	var out string
	sel := &survey.Select{
		Message: "Renderer",
		Options: names,
		Description: func(_ string, index int) string {
			return q.Choices[index].ContentType
		},
	}
	if slices.Contains(names, q.Current) {
		sel.Default = q.Current
	}
	if err := survey.AskOne(sel, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) ModelField(ctx context.Context) (Field, bool, error) {
	if err := ctx.Err(); err != nil {
		return Field{}, false, err
	}
	var more bool
	if err := survey.AskOne(&survey.Confirm{Message: "Add a model field?"}, &more); err != nil {
		return Field{}, false, translateSurveyErr(err)
	}
	if !more {
		return Field{}, false, nil
	}

	var field Field
	questions := []*survey.Question{
		{
			Name: "name",
			Prompt: &survey.Input{
				Message: "Field name",
				Help:    "Templates read it as model.<name>.",
			},
			Validate: survey.ComposeValidators(survey.Required, stringValidator(ValidateFieldName)),
		},
		{
			Name: "value",
			Prompt: &survey.Input{
				Message: "Value",
				Help:    "JSON numbers, booleans and null are decoded; anything else is a string.",
			},
		},
	}
	if err := survey.Ask(questions, &field); err != nil {
		return Field{}, false, translateSurveyErr(err)
	}
	return field, true, nil
}

func stringValidator(fn func(string) error) survey.Validator {
	return func(ans interface{}) error {
		s, _ := ans.(string)
		return fn(s)
	}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
