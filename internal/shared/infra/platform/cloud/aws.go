package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/davicafu/gamehub/internal/config"
)

// Clients agrupa los clientes AWS que usa la aplicación.
type Clients struct {
	SQS *sqs.Client
	SSM *ssm.Client
}

// NewClients carga la configuración por defecto de AWS (entorno, perfil, rol).
// Con aws.endpoint configurado apunta ambos clientes a LocalStack con credenciales estáticas.
func NewClients(ctx context.Context, cfg config.AWSConfig, log *zap.Logger) (*Clients, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		log.Info("☁️ Using local AWS endpoint", zap.String("endpoint", cfg.Endpoint))
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var sqsOpts []func(*sqs.Options)
	var ssmOpts []func(*ssm.Options)
	if cfg.Endpoint != "" {
		sqsOpts = append(sqsOpts, func(o *sqs.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
		ssmOpts = append(ssmOpts, func(o *ssm.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
	}

	return &Clients{
		SQS: sqs.NewFromConfig(awsCfg, sqsOpts...),
		SSM: ssm.NewFromConfig(awsCfg, ssmOpts...),
	}, nil
}
