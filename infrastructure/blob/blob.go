/*
Package blob 课程媒体存储网关。

两种实现：
1. AzureStore: Azure Blob Storage 容器（生产）
2. FilesystemStore: afero 文件系统目录（开发/测试）

名称为容器内的扁平 blob 名，即课程 media_url 的最后一段。
删除是幂等的：目标不存在时返回 nil。
*/
package blob

import (
	"errors"
	"fmt"
	"strings"

	appconfig "edusync/config"
	"edusync/domain/shared"

	"github.com/spf13/afero"
)

const (
	ProviderAzure      = "azure"
	ProviderFilesystem = "filesystem"
)

// ErrInvalidName blob 名称非法
var ErrInvalidName = errors.New("invalid blob name")

// ValidateName rejects names that are empty or could escape the container.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// New builds the configured store.
func New(cfg appconfig.BlobConfig) (shared.BlobStore, error) {
	switch cfg.Provider {
	case ProviderAzure:
		s, err := NewAzureStore(cfg.ConnectionString, cfg.Container)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderFilesystem, "":
		s, err := NewFilesystemStore(afero.NewOsFs(), cfg.BaseDir, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported blob provider %q", cfg.Provider)
	}
}
