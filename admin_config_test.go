package cs4teachers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAdminSiteRegistersEveryKind(t *testing.T) {
	site := DefaultAdminSite()
	var kinds []EntityKind
	for _, m := range site.Models() {
		kinds = append(kinds, m.Kind)
	}
	assert.ElementsMatch(t, []EntityKind{
		KindEvent, KindThirdPartyEvent, KindSession, KindLocation, KindResource,
		KindSeries, KindSponsor, KindLocationImage, KindEventImage,
	}, kinds)
	assert.Equal(t, KindEvent, kinds[0])
}

func TestEventFieldGrouping(t *testing.T) {
	m, ok := DefaultAdminSite().Model(KindEvent)
	require.True(t, ok)

	sets := m.FormFieldsets()
	require.Len(t, sets, 3)
	assert.Empty(t, sets[0].Name)
	assert.Contains(t, sets[0].Fields, "name")
	assert.Equal(t, "Visibility", sets[1].Name)
	assert.Equal(t, []string{"is_published"}, sets[1].Fields)
	assert.False(t, sets[1].Collapsed)
	assert.Equal(t, "Advanced", sets[2].Name)
	assert.Equal(t, []string{"slug"}, sets[2].Fields)
	assert.True(t, sets[2].Collapsed)

	require.Len(t, m.Inlines, 1)
	assert.Equal(t, KindSession, m.Inlines[0].Kind)
	assert.Equal(t, 5, m.Inlines[0].Extra)
}

func TestWidgets(t *testing.T) {
	site := DefaultAdminSite()
	loc, _ := site.Model(KindLocation)
	assert.Equal(t, WidgetMapAddress, loc.WidgetFor("address"))
	assert.Equal(t, WidgetRichText, loc.WidgetFor("description"))
	assert.Equal(t, WidgetText, loc.WidgetFor("name"))

	series, _ := site.Model(KindSeries)
	assert.Equal(t, WidgetTextarea, series.WidgetFor("description"))
}

func TestFormFieldsetsWithoutExplicitGroups(t *testing.T) {
	loc, _ := DefaultAdminSite().Model(KindLocation)
	sets := loc.FormFieldsets()
	require.Len(t, sets, 1)
	assert.Equal(t, []string{"name", "description", "address", "geolocation"}, sets[0].Fields)
	assert.False(t, loc.Editable("slug"))
	assert.True(t, loc.Editable("geolocation"))
}

func TestRegisterDefaultsAndDuplicates(t *testing.T) {
	site := NewAdminSite()
	require.NoError(t, site.Register(ModelAdmin{Kind: KindSponsor, Fields: []string{"name"}}))
	m, ok := site.Model(KindSponsor)
	require.True(t, ok)
	assert.Equal(t, "sponsor", m.Label)
	assert.Equal(t, "sponsors", m.LabelPlural)
	assert.Equal(t, []string{"name"}, m.ListDisplay)

	assert.Error(t, site.Register(ModelAdmin{Kind: KindSponsor}))
	_, ok = site.Model(KindEvent)
	assert.False(t, ok)
}
