package http

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// FilesRequest carries a project as path -> content
type FilesRequest struct {
	Files map[string]string `json:"files" binding:"required,min=1,max=500,dive,keys,vpath,endkeys,max=1048576"`
}

// Snapshot applies the payload limits and builds a snapshot
func (r FilesRequest) Snapshot() (*project.Snapshot, error) {
	if err := utils.ValidateFiles(r.Files); err != nil {
		return nil, err
	}
	return project.NewSnapshot(r.Files)
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the "vpath" rule to gin's validator
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		registerErr = v.RegisterValidation("vpath", func(fl validator.FieldLevel) bool {
			return utils.ValidateVirtualPath(fl.Field().String()) == nil
		})
	})
	return registerErr
}

// describe turns validation errors into one readable line
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "vpath":
			msgs = append(msgs, fmt.Sprintf("invalid file path %q", fe.Value()))
		case "required", "min":
			msgs = append(msgs, "files must not be empty")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %s", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
