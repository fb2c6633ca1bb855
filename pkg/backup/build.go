package backup

import (
	"vkbackup/pkg/config"
	"vkbackup/pkg/destination/bucket"
	"vkbackup/pkg/destination/gdrive"
	"vkbackup/pkg/destination/yandex"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/storage"
	"vkbackup/pkg/vk"
)

// Targets builds the enabled destinations in upload order: Yandex.Disk,
// Google Drive, then the bucket
func Targets(cfg *config.Config, log logger.Logger) ([]Target, error) {
	var targets []Target

	if cfg.Yandex.Enabled {
		targets = append(targets, Target{
			Destination: yandex.New(cfg.Yandex, cfg.Polling, cfg.HTTP, log),
			Folder:      cfg.Yandex.Folder,
			Manifest:    cfg.Yandex.Manifest,
		})
	}
	if cfg.GDrive.Enabled {
		targets = append(targets, Target{
			Destination: gdrive.New(cfg.GDrive, cfg.HTTP, log),
			Folder:      cfg.GDrive.Folder,
			Manifest:    cfg.GDrive.Manifest,
		})
	}
	if cfg.Bucket.Enabled {
		b, err := bucket.New(cfg.Bucket, log)
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{
			Destination: b,
			Folder:      cfg.Bucket.Folder,
			Manifest:    cfg.Bucket.Manifest,
		})
	}

	return targets, nil
}

// FromConfig wires a runner from a validated configuration
func FromConfig(cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	stager, err := storage.NewOSStager(cfg.Staging, cfg.HTTP, log)
	if err != nil {
		return nil, err
	}

	targets, err := Targets(cfg, log)
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithLogger(log)}, opts...)
	return NewRunner(vk.NewClient(cfg.VK, cfg.HTTP, log), stager, targets, opts...), nil
}
