package check

import (
	"context"
	"fmt"

	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
)

// envVarSetCheck verifies an environment variable is defined in the image.
// By default any value counts, including empty; NonEmpty tightens that.
// Variable names are validated at load time, so direct interpolation into
// the probe is safe.
type envVarSetCheck struct{}

func (envVarSetCheck) Kind() rubric.Kind { return rubric.KindEnvVarSet }

func (envVarSetCheck) Run(ctx context.Context, p runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error) {
	params := spec.EnvVarSet
	if params == nil {
		return Result{}, fmt.Errorf("envvar_set params missing")
	}

	// ${NAME+x} expands to x only when NAME is defined, empty or not.
	command := fmt.Sprintf(`test -n "${%s+x}"`, params.Name)
	if params.NonEmpty {
		command = fmt.Sprintf(`test -n "${%s}"`, params.Name)
	}

	res, err := probe(ctx, p, image, command, spec)
	if err != nil {
		return Result{}, err
	}

	if res.ExitCode != 0 {
		if params.NonEmpty {
			return Result{Message: fmt.Sprintf("environment variable '%s' is empty or not set", params.Name)}, nil
		}
		return Result{Message: fmt.Sprintf("environment variable '%s' is not set", params.Name)}, nil
	}
	return Result{Passed: true, Message: fmt.Sprintf("environment variable '%s' is set", params.Name)}, nil
}
