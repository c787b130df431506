package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/preconf-sender-go/internal/aws"
	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner/awsKmsHashSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner/inMemoryHashSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner/keystoreHashSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/beacon"
	"github.com/Layr-Labs/preconf-sender-go/pkg/config"
	"github.com/Layr-Labs/preconf-sender-go/pkg/logger"
	"github.com/Layr-Labs/preconf-sender-go/pkg/preconf"
	"github.com/Layr-Labs/preconf-sender-go/pkg/protocols"
	"github.com/Layr-Labs/preconf-sender-go/pkg/transactionBuilder"
	"github.com/Layr-Labs/preconf-sender-go/pkg/transport"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "preconf-sender",
		Usage: "Send a transaction to a preconfer for inclusion in the next slot",
		Description: `Builds and signs one EIP-1559 transaction, reads the current beacon head slot
and asks a preconfer to include the transaction in the following slot.

Supported protocols: ` + config.SupportedProtocolsString(),
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "execution",
				Aliases:  []string{"e"},
				Usage:    "Execution client JSON-RPC URL",
				EnvVars:  []string{config.EnvPreconfExecutionUrl},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "beacon",
				Aliases:  []string{"b"},
				Usage:    "Beacon node HTTP API URL",
				EnvVars:  []string{config.EnvPreconfBeaconUrl},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "preconfer",
				Usage:    "Preconfer (relay) URL",
				EnvVars:  []string{config.EnvPreconfPreconferUrl},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "tx",
				Usage: "Raw 0x-prefixed transaction whose to, input and value are resent from the signer",
			},
			&cli.BoolFlag{
				Name:  "random",
				Usage: "Send a 1 wei transfer from the signer to itself",
			},
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Hex encoded secp256k1 private key",
				EnvVars: []string{config.EnvPreconfPrivateKey},
			},
			&cli.StringFlag{
				Name:    "keystore",
				Usage:   "Path to an encrypted JSON keystore file",
				EnvVars: []string{config.EnvPreconfKeystorePath},
			},
			&cli.StringFlag{
				Name:    "keystore-password",
				Usage:   "Keystore password",
				EnvVars: []string{config.EnvPreconfKeystorePassword},
			},
			&cli.StringFlag{
				Name:    "aws-kms-key-id",
				Usage:   "AWS KMS key ID or alias of an ECC_SECG_P256K1 signing key",
				EnvVars: []string{config.EnvPreconfAwsKmsKeyId},
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region of the KMS key",
				EnvVars: []string{config.EnvPreconfAwsRegion},
			},
			&cli.StringFlag{
				Name:     "protocol",
				Usage:    fmt.Sprintf("Preconfirmation protocol: %s", config.SupportedProtocolsString()),
				EnvVars:  []string{config.EnvPreconfProtocol},
				Required: true,
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for every HTTP request",
				Value:   config.DefaultRequestTimeout,
				EnvVars: []string{config.EnvPreconfTimeout},
			},
			&cli.StringFlag{
				Name:    "replacement-uuid",
				Usage:   "Ethgas replacement UUID",
				Value:   config.DefaultEthgasReplacementUuid,
				EnvVars: []string{config.EnvPreconfReplacementUuid},
			},
			&cli.BoolFlag{
				Name:    "fresh-replacement-uuid",
				Usage:   "Generate a new Ethgas replacement UUID for the request",
				EnvVars: []string{config.EnvPreconfFreshReplacementUuid},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvPreconfDebug},
			},
		},
		Action: runPreconfSender,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runPreconfSender(c *cli.Context) error {
	cfg := parseConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	ctx := c.Context

	signer, err := loadSigner(ctx, cfg, l)
	if err != nil {
		return err
	}

	ethClient, err := ethclient.DialContext(ctx, cfg.ExecutionUrl)
	if err != nil {
		return fmt.Errorf("failed to connect to execution client: %w", err)
	}
	defer ethClient.Close()

	builder, err := transactionBuilder.NewBuilder(&transactionBuilder.BuilderConfig{
		Client: ethClient,
		Signer: signer,
		Logger: l,
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction builder: %w", err)
	}

	req := builder.SelfTransferRequest()
	if cfg.RawTx != "" {
		req, err = transactionBuilder.RequestFromRaw(cfg.RawTx)
		if err != nil {
			return fmt.Errorf("invalid --tx: %w", err)
		}
	}

	fmt.Printf("Sending tx from %s\n", builder.From().Hex())

	tx, err := builder.FillAndSign(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to build transaction: %w", err)
	}

	httpClient := transport.NewHTTPClient(nil, cfg.Timeout)

	beaconClient, err := beacon.NewClient(&beacon.ClientConfig{
		BaseUrl:    cfg.BeaconUrl,
		HttpClient: httpClient,
		Logger:     l,
	})
	if err != nil {
		return fmt.Errorf("failed to create beacon client: %w", err)
	}

	replacementUuid := protocols.FixedReplacementUuid(cfg.ReplacementUuid)
	if cfg.FreshReplacementUuid {
		replacementUuid = protocols.FreshReplacementUuid
	}

	inclusionSender, err := protocols.NewInclusionSender(cfg.Protocol, &protocols.SenderOptions{
		Url:             cfg.PreconferUrl,
		Signer:          signer,
		ReplacementUuid: replacementUuid,
		HttpClient:      httpClient,
		Logger:          l,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s sender: %w", cfg.Protocol, err)
	}

	sender, err := preconf.NewSender(&preconf.SenderConfig{
		HeadSlotReader:  beaconClient,
		InclusionSender: inclusionSender,
		Logger:          l,
		OnTarget: func(target preconf.Target) {
			fmt.Printf("Sending %s to %s for slot %d (head %d)\n",
				target.TxHash.Hex(), target.Protocol, target.TargetSlot, target.HeadSlot)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create sender: %w", err)
	}

	result, err := sender.Send(ctx, tx)
	if err != nil {
		return err
	}

	fmt.Printf("Requested inclusion of %s in slot %d\n", tx.Hash().Hex(), result.TargetSlot)
	fmt.Printf("Response: %s\n", result.Response.Body)
	return nil
}

func parseConfig(c *cli.Context) *config.PreconfSenderConfig {
	return &config.PreconfSenderConfig{
		ExecutionUrl:         c.String("execution"),
		BeaconUrl:            c.String("beacon"),
		PreconferUrl:         c.String("preconfer"),
		PrivateKey:           c.String("private-key"),
		KeystorePath:         c.String("keystore"),
		KeystorePassword:     c.String("keystore-password"),
		AwsKmsKeyId:          c.String("aws-kms-key-id"),
		AwsRegion:            c.String("aws-region"),
		RawTx:                c.String("tx"),
		Random:               c.Bool("random"),
		Protocol:             config.Protocol(c.String("protocol")),
		Timeout:              c.Duration("timeout"),
		ReplacementUuid:      c.String("replacement-uuid"),
		FreshReplacementUuid: c.Bool("fresh-replacement-uuid"),
		Debug:                c.Bool("debug"),
	}
}

func loadSigner(ctx context.Context, cfg *config.PreconfSenderConfig, l *zap.Logger) (authSigner.IHashSigner, error) {
	switch {
	case cfg.AwsKmsKeyId != "":
		awsCfg, err := aws.LoadAWSConfig(ctx, cfg.AwsRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		if arn, err := aws.CallerArn(ctx, awsCfg); err != nil {
			l.Sugar().Warnw("Failed to resolve AWS caller identity", "error", err)
		} else {
			l.Sugar().Infow("Using AWS identity", "arn", arn, "region", awsCfg.Region)
		}
		signer, err := awsKmsHashSigner.NewAwsKmsHashSignerFromConfig(ctx, awsCfg, cfg.AwsKmsKeyId, l)
		if err != nil {
			return nil, fmt.Errorf("failed to load KMS key: %w", err)
		}
		return signer, nil
	case cfg.KeystorePath != "":
		signer, err := keystoreHashSigner.NewKeystoreHashSigner(cfg.KeystorePath, cfg.KeystorePassword, l)
		if err != nil {
			return nil, fmt.Errorf("failed to load keystore: %w", err)
		}
		return signer, nil
	default:
		signer, err := inMemoryHashSigner.NewInMemoryHashSigner(cfg.PrivateKey, l)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		return signer, nil
	}
}
