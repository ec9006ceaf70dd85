package ports

import "github.com/warden-dev/warden-sdk/domain/entities"

// Policy enforces a permission manifest against runtime requests.
// Every check is fail-closed: an absent grant denies the request.
type Policy interface {
	CheckNetwork(req entities.NetworkRequest, manifest *entities.Manifest) bool
	CheckFileSystem(req entities.FileSystemRequest, manifest *entities.Manifest) bool
	CheckEnv(req entities.EnvRequest, manifest *entities.Manifest) bool
	CheckSystem(req entities.SystemRequest, manifest *entities.Manifest) bool
}
