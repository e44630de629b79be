package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

type fanoutFixture struct {
	service  *AlertFanoutService
	settings *fakeSettingsRepo
	records  *fakeRecordRepo
	alerts   *fakeAlertRepo
	bus      *fakeEventBus
}

func newFanoutFixture() *fanoutFixture {
	f := &fanoutFixture{
		settings: newFakeSettingsRepo(),
		records:  newFakeRecordRepo(),
		alerts:   newFakeAlertRepo(),
		bus:      newFakeEventBus(),
	}
	f.service = NewAlertFanoutService(f.settings, f.records, f.alerts, f.bus, nil)
	return f
}

func changeEvent(percent float64) PriceChangeEvent {
	oldPrice := 100000.0
	newPrice := oldPrice * (1 + percent/100)
	return PriceChangeEvent{
		CompetitorHospitalID: "hosp-a",
		ProcedureID:          "proc-1",
		TargetAreaCode:       "full_face",
		OldPrice:             oldPrice,
		NewPrice:             newPrice,
		PriceChange:          newPrice - oldPrice,
		PriceChangePercent:   percent,
	}
}

func TestFanOut_NoSubscribersNoAlerts(t *testing.T) {
	f := newFanoutFixture()

	emitted, err := f.service.FanOut(context.Background(), changeEvent(15))

	require.NoError(t, err)
	assert.Zero(t, emitted)
	assert.Empty(t, f.alerts.all())
}

func TestFanOut_SourceHospitalNeverAlertsItself(t *testing.T) {
	f := newFanoutFixture()
	f.settings.competitors["hosp-a"] = &entities.CompetitorSettings{
		HospitalID: "hosp-a", AutoDetect: true,
	}

	emitted, err := f.service.FanOut(context.Background(), changeEvent(15))

	require.NoError(t, err)
	assert.Zero(t, emitted)
}

func TestFanOut_ExplicitCompetitorListSubscribes(t *testing.T) {
	f := newFanoutFixture()
	f.settings.competitors["hosp-b"] = &entities.CompetitorSettings{
		HospitalID: "hosp-b", CompetitorIDs: []string{"hosp-a"},
	}
	f.settings.competitors["hosp-c"] = &entities.CompetitorSettings{
		HospitalID: "hosp-c", CompetitorIDs: []string{"hosp-z"},
	}

	emitted, err := f.service.FanOut(context.Background(), changeEvent(15))

	require.NoError(t, err)
	assert.Equal(t, 1, emitted)
	alerts := f.alerts.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "hosp-b", alerts[0].SubscriberHospitalID)
}

func TestFanOut_SeverityClassification(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    entities.AlertSeverity
	}{
		{"15 percent is warning", 15, entities.AlertSeverityWarning},
		{"exactly 20 percent is urgent", 20, entities.AlertSeverityUrgent},
		{"25 percent is urgent", 25, entities.AlertSeverityUrgent},
		{"negative 20 percent is urgent", -20, entities.AlertSeverityUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFanoutFixture()
			f.settings.competitors["hosp-b"] = &entities.CompetitorSettings{
				HospitalID: "hosp-b", AutoDetect: true,
			}

			emitted, err := f.service.FanOut(context.Background(), changeEvent(tt.percent))

			require.NoError(t, err)
			require.Equal(t, 1, emitted)
			assert.Equal(t, tt.want, f.alerts.all()[0].Severity)
		})
	}
}

func TestFanOut_AlertTypeFollowsDirection(t *testing.T) {
	f := newFanoutFixture()
	f.settings.competitors["hosp-b"] = &entities.CompetitorSettings{
		HospitalID: "hosp-b", AutoDetect: true,
	}

	_, err := f.service.FanOut(context.Background(), changeEvent(-15))
	require.NoError(t, err)
	_, err = f.service.FanOut(context.Background(), changeEvent(15))
	require.NoError(t, err)

	alerts := f.alerts.all()
	require.Len(t, alerts, 2)
	assert.Equal(t, entities.AlertTypePriceDrop, alerts[0].AlertType)
	assert.Equal(t, entities.AlertTypePriceRise, alerts[1].AlertType)
}

func TestFanOut_EnrichesWithSubscriberPrice(t *testing.T) {
	f := newFanoutFixture()
	ctx := context.Background()
	f.settings.competitors["hosp-b"] = &entities.CompetitorSettings{
		HospitalID: "hosp-b", AutoDetect: true,
	}
	require.NoError(t, f.records.Upsert(ctx, &entities.PriceRecord{
		HospitalID:     "hosp-b",
		ProcedureID:    "proc-1",
		TargetAreaCode: "full_face",
		Price:          90000,
	}))

	emitted, err := f.service.FanOut(ctx, changeEvent(15))

	require.NoError(t, err)
	require.Equal(t, 1, emitted)
	alert := f.alerts.all()[0]
	require.NotNil(t, alert.SubscriberPrice)
	assert.Equal(t, float64(90000), *alert.SubscriberPrice)
	require.NotNil(t, alert.PriceGap)
	assert.Equal(t, float64(25000), *alert.PriceGap)
	require.NotNil(t, alert.PriceGapPercent)
	assert.Equal(t, float64(28), *alert.PriceGapPercent)
}

func TestFanOut_NoSubscriberPriceLeavesGapNil(t *testing.T) {
	f := newFanoutFixture()
	f.settings.competitors["hosp-b"] = &entities.CompetitorSettings{
		HospitalID: "hosp-b", AutoDetect: true,
	}

	emitted, err := f.service.FanOut(context.Background(), changeEvent(15))

	require.NoError(t, err)
	require.Equal(t, 1, emitted)
	alert := f.alerts.all()[0]
	assert.Nil(t, alert.SubscriberPrice)
	assert.Nil(t, alert.PriceGap)
	assert.Nil(t, alert.PriceGapPercent)
}

func TestFanOut_OneFailureDoesNotBlockOthers(t *testing.T) {
	f := newFanoutFixture()
	f.settings.competitors["hosp-b"] = &entities.CompetitorSettings{
		HospitalID: "hosp-b", AutoDetect: true,
	}
	f.settings.competitors["hosp-c"] = &entities.CompetitorSettings{
		HospitalID: "hosp-c", AutoDetect: true,
	}
	f.alerts.failFor["hosp-b"] = true

	emitted, err := f.service.FanOut(context.Background(), changeEvent(15))

	require.NoError(t, err)
	assert.Equal(t, 1, emitted)
	alerts := f.alerts.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "hosp-c", alerts[0].SubscriberHospitalID)
}

func TestFanOut_PublishesBusEventPerAlert(t *testing.T) {
	f := newFanoutFixture()
	f.settings.competitors["hosp-b"] = &entities.CompetitorSettings{
		HospitalID: "hosp-b", AutoDetect: true,
	}
	f.settings.competitors["hosp-c"] = &entities.CompetitorSettings{
		HospitalID: "hosp-c", AutoDetect: true,
	}

	emitted, err := f.service.FanOut(context.Background(), changeEvent(25))

	require.NoError(t, err)
	assert.Equal(t, 2, emitted)
	assert.Len(t, f.bus.published(), 2)
}
