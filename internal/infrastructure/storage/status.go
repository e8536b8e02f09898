package storage

// RemoteStatusKind — явный тег состояния удалённого хранилища.
// Дискриминированный тип вместо свободной связки булевых флагов,
// чтобы switch по нему был проверяем на полноту.
type RemoteStatusKind int

const (
	// RemoteAvailable — хранилище отвечает.
	RemoteAvailable RemoteStatusKind = iota

	// RemotePaused — проект/база приостановлены на стороне провайдера;
	// имеет смысл повторить позже.
	RemotePaused

	// RemoteUnavailable — хранилище недоступно, причина в Reason.
	RemoteUnavailable
)

// RemoteStatus — состояние удалённого хранилища с причиной отказа.
type RemoteStatus struct {
	Kind   RemoteStatusKind
	Reason error
}

func (s RemoteStatus) String() string {
	switch s.Kind {
	case RemoteAvailable:
		return "available"
	case RemotePaused:
		return "paused"
	case RemoteUnavailable:
		if s.Reason != nil {
			return "unavailable: " + s.Reason.Error()
		}
		return "unavailable"
	}
	return "unknown"
}
