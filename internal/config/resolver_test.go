package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmTypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParameters struct {
	values map[string]string
	err    error
	calls  int
}

func (f *fakeParameters) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[aws.ToString(in.Name)]
	if !ok {
		return nil, &ssmTypes.ParameterNotFound{Message: aws.String("not found")}
	}
	return &ssm.GetParameterOutput{Parameter: &ssmTypes.Parameter{Value: aws.String(v)}}, nil
}

func TestResolver_ExplicitValueWins(t *testing.T) {
	t.Setenv("GAMES_EVENTS_QUEUE_URL", "http://env/queue")
	params := &fakeParameters{values: map[string]string{"/fcg/GAMES_EVENTS_QUEUE_URL": "http://ssm/queue"}}
	cfg := &Config{Environment: "production", AWS: AWSConfig{SSMPrefix: "/fcg"}, Queue: QueueConfig{GameEventsURL: "http://explicit/queue"}}

	url, err := cfg.GameEventsQueueResolver(params).Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "http://explicit/queue", url)
	assert.Zero(t, params.calls)
}

func TestResolver_EnvBeforeSSM(t *testing.T) {
	t.Setenv("GAMES_EVENTS_QUEUE_URL", "http://env/queue")
	params := &fakeParameters{values: map[string]string{"/fcg/GAMES_EVENTS_QUEUE_URL": "http://ssm/queue"}}
	cfg := &Config{Environment: "production", AWS: AWSConfig{SSMPrefix: "/fcg"}}

	url, err := cfg.GameEventsQueueResolver(params).Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "http://env/queue", url)
	assert.Zero(t, params.calls)
}

func TestResolver_SSMOutsideDevelopment(t *testing.T) {
	t.Setenv("GAMES_EVENTS_QUEUE_URL", "")
	params := &fakeParameters{values: map[string]string{"/fcg/GAMES_EVENTS_QUEUE_URL": "http://ssm/queue"}}
	cfg := &Config{Environment: "production", AWS: AWSConfig{SSMPrefix: "/fcg/"}}

	url, err := cfg.GameEventsQueueResolver(params).Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "http://ssm/queue", url)
}

func TestResolver_DevelopmentSkipsSSM(t *testing.T) {
	t.Setenv("PAYMENTS_QUEUE_URL", "")
	params := &fakeParameters{values: map[string]string{"/fcg/PAYMENTS_QUEUE_URL": "http://ssm/payments"}}
	cfg := &Config{Environment: EnvDevelopment, AWS: AWSConfig{SSMPrefix: "/fcg"}}

	_, err := cfg.PaymentsQueueResolver(params).Resolve(context.Background())

	assert.ErrorIs(t, err, ErrNotResolved)
	assert.Zero(t, params.calls)
}

func TestResolver_DevelopmentWithUseSSM(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	params := &fakeParameters{values: map[string]string{"/fcg/MONGODB_URI": "mongodb://ssm"}}
	cfg := &Config{Environment: EnvDevelopment, UseSSM: true, AWS: AWSConfig{SSMPrefix: "/fcg"}}

	uri, err := cfg.MongoURIResolver(params).Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "mongodb://ssm", uri)
}

func TestResolver_NotFoundIsAbsent(t *testing.T) {
	params := &fakeParameters{values: map[string]string{}}
	r := NewResolver("x", SSMParameter(params, "/missing"))

	_, err := r.Resolve(context.Background())

	assert.ErrorIs(t, err, ErrNotResolved)
}

func TestResolver_SourceErrorIsReported(t *testing.T) {
	params := &fakeParameters{err: errors.New("network down")}
	r := NewResolver("x", Static(""), SSMParameter(params, "/p"))

	_, err := r.Resolve(context.Background())

	assert.ErrorIs(t, err, ErrNotResolved)
	assert.Contains(t, err.Error(), "network down")
}

func TestResolver_MemoizesSuccessOnly(t *testing.T) {
	params := &fakeParameters{values: map[string]string{}}
	r := NewResolver("x", SSMParameter(params, "/p"))

	_, err := r.Resolve(context.Background())
	assert.Error(t, err)

	params.values["/p"] = "value"
	v, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, _ = r.Resolve(context.Background())
	assert.Equal(t, 2, params.calls)
}
