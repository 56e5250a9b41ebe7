// common/serviceid/serviceid.go
package serviceid

import (
	"github.com/campushub/session-system/common/backoff"
)

// ServiceNameKey — ключ лейбла для метрик всех подсистем.
const ServiceNameKey = "service"

// InitServiceName задаёт единое имя сервиса для метрик back-off'а.
// Нужно вызывать в main() до любых попыток отправки метрик.
func InitServiceName(name string) {
	backoff.SetServiceLabel(name)
}
