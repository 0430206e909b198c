package engine

import "fleetwatch/internal/model"

// CancelFunc revokes one subscription. Safe to call multiple times and
// after the underlying connection is already closed.
type CancelFunc func()

// Source is the push contract of the remote store. Each subscription fires
// at least once initially with the current value and thereafter on every
// remote change. There is no delivery-ordering guarantee between the three
// independent streams.
type Source interface {
	SubscribeReadings(func(map[string]model.Reading)) CancelFunc
	SubscribeThresholds(func(model.ThresholdsPatch)) CancelFunc
	SubscribeAlerts(func([]model.AlertRecord)) CancelFunc
}
