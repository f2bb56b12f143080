// Package aws provides an AWS sink for flowtape. Tap envelopes are published
// to SNS topics (the default) or directly to SQS queues, selected by the
// AWSService config value. LocalStack is supported via a custom endpoint.
package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/drblury/flowtape/transport"
)

// SinkName is the name used to register this sink.
const SinkName = "aws"

const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
)

// DefaultConfigLoader allows overriding the AWS config loader for testing.
var DefaultConfigLoader = awsconfig.LoadDefaultConfig

// TopicResolverFactory allows overriding the topic resolver creation for
// testing.
var TopicResolverFactory = sns.NewGenerateArnTopicResolver

// SNSPublisherFactory allows overriding the SNS publisher creation for
// testing.
var SNSPublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return sns.NewPublisher(cfg, logger)
}

// SQSPublisherFactory allows overriding the SQS publisher creation for
// testing.
var SQSPublisherFactory = func(cfg sqs.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return sqs.NewPublisher(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(SinkName, Build, transport.AWSCapabilities)
}

// Build creates a new AWS sink publishing to SNS or SQS.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Sink, error) {
	awsCfg, err := createAWSConfig(ctx, cfg, logger)
	if err != nil {
		return transport.Sink{}, err
	}
	logger.Info("Created AWS config", watermill.LogFields{
		"region":          safeAWSRegion(awsCfg),
		"custom_endpoint": hasCustomEndpoint(awsCfg),
		"service":         serviceName(cfg),
	})

	var publisher message.Publisher
	switch serviceName(cfg) {
	case "sqs":
		publisher, err = createSQSPublisher(cfg, logger, awsCfg)
	default:
		publisher, err = createSNSPublisher(cfg, logger, awsCfg)
	}
	if err != nil {
		return transport.Sink{}, err
	}

	return transport.Sink{Publisher: publisher}, nil
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.AWSCapabilities
}

func serviceName(cfg transport.Config) string {
	if cfg == nil {
		return "sns"
	}
	svc := strings.ToLower(cfg.GetAWSService())
	if svc == "" {
		return "sns"
	}
	return svc
}

func createAWSConfig(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (*aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg != nil {
		region := cfg.GetAWSRegion()
		accessKey := cfg.GetAWSAccessKeyID()
		secretKey := cfg.GetAWSSecretAccessKey()

		if region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		if accessKey != "" && secretKey != "" {
			logger.Info("Using static AWS credentials from config", watermill.LogFields{})
			opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider(accessKey, secretKey)))
		}
	}

	awsCfg, err := DefaultConfigLoader(ctx, opts...)
	if err != nil {
		logger.Error("Failed to load AWS default config", err, nil)
		return nil, err
	}

	// Ensure region is set even if the loader ignores options
	if cfg != nil && cfg.GetAWSRegion() != "" {
		awsCfg.Region = cfg.GetAWSRegion()
	}

	return &awsCfg, nil
}

func createSNSPublisher(cfg transport.Config, logger watermill.LoggerAdapter, awsCfg *aws.Config) (message.Publisher, error) {
	accountID, region := resolveAccountAndRegion(cfg, logger, safeAWSRegion(awsCfg))

	topicResolver, err := TopicResolverFactory(accountID, region)
	if err != nil {
		logger.Error("Failed to create SNS topic resolver", err, watermill.LogFields{
			"accountID": accountID,
			"region":    region,
		})
		return nil, err
	}

	publisherConfig := sns.PublisherConfig{
		TopicResolver: topicResolver,
		AWSConfig:     *awsCfg,
		Marshaler:     sns.DefaultMarshalerUnmarshaler{},
	}

	if endpoint, err := awsEndpointURL(cfg); err != nil {
		return nil, err
	} else if endpoint != nil {
		publisherConfig.OptFns = []func(*amazonsns.Options){
			amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{
				Endpoint: smithyendpoints.Endpoint{
					URI: *endpoint,
				},
			}),
		}
	}

	return SNSPublisherFactory(publisherConfig, logger)
}

func createSQSPublisher(cfg transport.Config, logger watermill.LoggerAdapter, awsCfg *aws.Config) (message.Publisher, error) {
	publisherConfig := sqs.PublisherConfig{
		AWSConfig: *awsCfg,
	}

	if endpoint, err := awsEndpointURL(cfg); err != nil {
		return nil, err
	} else if endpoint != nil {
		publisherConfig.OptFns = []func(*amazonsqs.Options){
			amazonsqs.WithEndpointResolverV2(sqs.OverrideEndpointResolver{
				Endpoint: smithyendpoints.Endpoint{
					URI: *endpoint,
				},
			}),
		}
	}

	return SQSPublisherFactory(publisherConfig, logger)
}

func resolveAccountAndRegion(cfg transport.Config, logger watermill.LoggerAdapter, fallbackRegion string) (string, string) {
	if cfg == nil {
		return "", fallbackRegion
	}

	accountID := strings.Trim(cfg.GetAWSAccountID(), "\"' ")
	region := cfg.GetAWSRegion()
	if region == "" {
		region = fallbackRegion
	}

	if accountID == "" && useLocalstackEndpoint(cfg) {
		accountID = localstackAccountID
		logger.Info("AWS account ID empty; using LocalStack default", watermill.LogFields{"accountID": accountID})
		return accountID, region
	}

	if accountID != "" && len(accountID) != awsAccountIDLength && useLocalstackEndpoint(cfg) {
		logger.Info("Invalid AWS account ID; falling back to LocalStack default", watermill.LogFields{"accountID": accountID})
		accountID = localstackAccountID
	}

	return accountID, region
}

func useLocalstackEndpoint(cfg transport.Config) bool {
	return cfg != nil && cfg.GetAWSEndpoint() != ""
}

func awsEndpointURL(cfg transport.Config) (*url.URL, error) {
	if cfg == nil || cfg.GetAWSEndpoint() == "" {
		return nil, nil
	}

	parsedURL, err := url.Parse(cfg.GetAWSEndpoint())
	if err != nil {
		return nil, fmt.Errorf("failed to parse AWS endpoint: %w", err)
	}
	return parsedURL, nil
}

func safeAWSRegion(cfg *aws.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Region
}

func hasCustomEndpoint(cfg *aws.Config) bool {
	return cfg != nil && cfg.BaseEndpoint != nil && *cfg.BaseEndpoint != ""
}

func staticCredentialsProvider(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}, nil
	})
}
