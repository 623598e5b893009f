// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Forms are plain structs. Each field that appears in the form has these tags:
//
//	form:"name"         the name of the form field (required)
//	label:"Name"        the label shown next to the input (defaults to the name)
//	input:"textarea"    the input type (defaults to "text", or "checkbox" for bools)
//	validate:"..."      rules for go-playground/validator
//
// Only string, int and bool fields are supported.

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("form")
	})
	return v
}

// fieldErrors maps form field names to error messages.
type fieldErrors map[string]string

// parseForm fills the given form struct from the request body and validates
// it. The returned fieldErrors is empty if the form is valid.
func parseForm(r *http.Request, target any) (fieldErrors, error) {
	err := r.ParseForm()
	if err != nil {
		return nil, err
	}

	errs := make(fieldErrors)
	v := reflect.ValueOf(target).Elem()
	for idx := range v.NumField() {
		field := v.Type().Field(idx)
		name := field.Tag.Get("form")
		if name == "" {
			continue
		}
		value := strings.TrimSpace(r.PostForm.Get(name))

		switch field.Type.Kind() {
		case reflect.String:
			v.Field(idx).SetString(value)
		case reflect.Int:
			if value == "" {
				v.Field(idx).SetInt(0)
				continue
			}
			num, err := strconv.Atoi(value)
			if err != nil {
				errs[name] = "Enter a whole number."
				continue
			}
			v.Field(idx).SetInt(int64(num))
		case reflect.Bool:
			v.Field(idx).SetBool(value != "" && value != "false")
		default:
			return nil, fmt.Errorf("form field %q has unsupported type %s", name, field.Type)
		}
	}

	var verrs validator.ValidationErrors
	err = formValidator.Struct(target)
	if errors.As(err, &verrs) {
		for _, ferr := range verrs {
			if _, exists := errs[ferr.Field()]; !exists {
				errs[ferr.Field()] = validationMessage(ferr)
			}
		}
	} else if err != nil {
		return nil, err
	}
	return errs, nil
}

func validationMessage(ferr validator.FieldError) string {
	switch ferr.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if ferr.Kind() == reflect.String {
			return fmt.Sprintf("Enter at least %s characters.", ferr.Param())
		}
		return fmt.Sprintf("Enter a value of at least %s.", ferr.Param())
	case "max":
		if ferr.Kind() == reflect.String {
			return fmt.Sprintf("Enter at most %s characters.", ferr.Param())
		}
		return fmt.Sprintf("Enter a value of at most %s.", ferr.Param())
	case "excludesall":
		return "This value contains characters that are not allowed."
	default:
		return "Enter a valid value."
	}
}

// FormField is the view model for one input of templates/form.html.
type FormField struct {
	Name    string
	Label   string
	Input   string
	Value   string
	Checked bool
	Error   string
}

// RenderedForm is the view model for templates/form.html.
type RenderedForm struct {
	Title       string
	Action      string
	SubmitLabel string
	CancelURL   string
	Fields      []FormField
}

// renderFormFields produces the view models of all fields in the given form
// struct, including the error messages from a previous parseForm.
func renderFormFields(form any, errs fieldErrors) []FormField {
	var result []FormField
	v := reflect.ValueOf(form)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	for idx := range v.NumField() {
		field := v.Type().Field(idx)
		name := field.Tag.Get("form")
		if name == "" {
			continue
		}
		ff := FormField{
			Name:  name,
			Label: field.Tag.Get("label"),
			Input: field.Tag.Get("input"),
			Error: errs[name],
		}
		if ff.Label == "" {
			ff.Label = name
		}

		switch field.Type.Kind() {
		case reflect.Bool:
			ff.Input = "checkbox"
			ff.Checked = v.Field(idx).Bool()
		case reflect.Int:
			if ff.Input == "" {
				ff.Input = "number"
			}
			if n := v.Field(idx).Int(); n != 0 {
				ff.Value = strconv.FormatInt(n, 10)
			}
		default:
			if ff.Input == "" {
				ff.Input = "text"
			}
			ff.Value = v.Field(idx).String()
		}
		result = append(result, ff)
	}
	return result
}

// renderForm shows a form page. The status is 200 for the initial GET, and
// 422 when the submitted values did not validate.
func (a *API) renderForm(w http.ResponseWriter, r *http.Request, rc *requestContext, f RenderedForm, form any, errs fieldErrors) {
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	f.Action = r.URL.Path
	f.Fields = renderFormFields(form, errs)
	a.render(w, r, rc, status, pageForm, f.Title, f)
}
