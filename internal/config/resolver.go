package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmTypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
)

var ErrNotResolved = errors.New("config value not resolved")

// ValueSource devuelve el valor conocido por la fuente, o "" si no lo tiene.
// Un error significa que la fuente no pudo consultarse, no que el valor falte.
type ValueSource func(ctx context.Context) (string, error)

// ParameterGetter es el subconjunto del cliente SSM que necesitamos.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Static es un valor de configuración explícito (fichero o flag).
func Static(value string) ValueSource {
	return func(context.Context) (string, error) {
		return strings.TrimSpace(value), nil
	}
}

// Env lee una variable de entorno.
func Env(key string) ValueSource {
	return func(context.Context) (string, error) {
		return strings.TrimSpace(os.Getenv(key)), nil
	}
}

// SSMParameter lee un parámetro (descifrado) del parameter store.
// ParameterNotFound y AccessDenied se tratan como "sin valor".
func SSMParameter(client ParameterGetter, name string) ValueSource {
	return func(ctx context.Context) (string, error) {
		if client == nil {
			return "", nil
		}
		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			var notFound *ssmTypes.ParameterNotFound
			if errors.As(err, &notFound) {
				return "", nil
			}
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDeniedException" {
				return "", nil
			}
			return "", fmt.Errorf("ssm parameter %s: %w", name, err)
		}
		if out.Parameter == nil {
			return "", nil
		}
		return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
	}
}

// When solo consulta src si enabled es true.
func When(enabled bool, src ValueSource) ValueSource {
	return func(ctx context.Context) (string, error) {
		if !enabled {
			return "", nil
		}
		return src(ctx)
	}
}

// Resolver prueba sus fuentes en orden; gana el primer valor no vacío.
// El primer valor resuelto se memoriza; los fallos no, para poder reintentar.
type Resolver struct {
	name    string
	sources []ValueSource

	mu    sync.Mutex
	value string
}

func NewResolver(name string, sources ...ValueSource) *Resolver {
	return &Resolver{name: name, sources: sources}
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.value != "" {
		return r.value, nil
	}

	var errs []error
	for _, src := range r.sources {
		v, err := src(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v != "" {
			r.value = v
			return v, nil
		}
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("%s: %w: %w", r.name, ErrNotResolved, errors.Join(errs...))
	}
	return "", fmt.Errorf("%s: %w", r.name, ErrNotResolved)
}

// Name identifica el valor en los logs.
func (r *Resolver) Name() string {
	return r.name
}

// ---------- Resolvers de la aplicación ----------

func (c *Config) parameter(name string) string {
	return strings.TrimRight(c.AWS.SSMPrefix, "/") + "/" + name
}

// MongoURIResolver: mongo.uri → MONGODB_URI → SSM <prefix>/MONGODB_URI.
func (c *Config) MongoURIResolver(params ParameterGetter) *Resolver {
	return NewResolver("mongodb uri",
		Static(c.Mongo.URI),
		Env("MONGODB_URI"),
		When(c.SSMEnabled(), SSMParameter(params, c.parameter("MONGODB_URI"))),
	)
}

// GameEventsQueueResolver: queue.game_events_url → GAMES_EVENTS_QUEUE_URL → SSM.
func (c *Config) GameEventsQueueResolver(params ParameterGetter) *Resolver {
	return NewResolver("games events queue url",
		Static(c.Queue.GameEventsURL),
		Env("GAMES_EVENTS_QUEUE_URL"),
		When(c.SSMEnabled(), SSMParameter(params, c.parameter("GAMES_EVENTS_QUEUE_URL"))),
	)
}

// PaymentsQueueResolver: queue.payments_url → PAYMENTS_QUEUE_URL → SSM.
func (c *Config) PaymentsQueueResolver(params ParameterGetter) *Resolver {
	return NewResolver("payments queue url",
		Static(c.Queue.PaymentsURL),
		Env("PAYMENTS_QUEUE_URL"),
		When(c.SSMEnabled(), SSMParameter(params, c.parameter("PAYMENTS_QUEUE_URL"))),
	)
}
