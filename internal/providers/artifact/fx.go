package artifact

import (
	"fmt"

	"github.com/smallbiznis/spk/internal/config"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("artifact",
	fx.Provide(New),
	fx.Provide(func(s Store) domain.ArtifactRemover { return s }),
)

// New builds the store selected by ARTIFACT_DRIVER.
func New(cfg config.Config, log *zap.Logger) (Store, error) {
	ac := cfg.Artifact
	switch ac.Driver {
	case "", "fs":
		log.Info("artifact store", zap.String("driver", "fs"), zap.String("dir", ac.Dir))
		return NewFileStore(ac.Dir, ac.BaseURL)
	case "oss":
		log.Info("artifact store", zap.String("driver", "oss"), zap.String("bucket", ac.OSSBucket))
		return NewOSSStore(OSSConfig{
			Endpoint:      ac.OSSEndpoint,
			AccessKey:     ac.OSSAccessKey,
			SecretKey:     ac.OSSSecretKey,
			SecurityToken: ac.OSSSecurityToken,
			Bucket:        ac.OSSBucket,
			Prefix:        ac.OSSPrefix,
			PublicBase:    ac.OSSPublicBase,
		})
	default:
		return nil, fmt.Errorf("unsupported artifact driver %q", ac.Driver)
	}
}
