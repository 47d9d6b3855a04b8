package ui_test

import (
	"context"
	"html/template"
	"testing"
	"time"

	"github.com/apollotyres/console/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_ReplaceRegionDropsOldBindings(t *testing.T) {
	doc := ui.NewDocument(time.UTC)
	calls := 0
	act := func(context.Context) error { calls++; return nil }

	doc.ReplaceRegion("usersTable", template.HTML("<table></table>"), map[string]ui.Action{
		"view-projects:a@x.com": act,
		"view-projects:b@x.com": act,
	})
	doc.ReplaceRegion("usersTable", template.HTML("<table></table>"), map[string]ui.Action{
		"view-projects:a@x.com": act,
	})

	assert.Equal(t, []string{"view-projects:a@x.com"}, doc.Actions("view-projects:"))
	assert.ErrorIs(t, doc.Click(context.Background(), "view-projects:b@x.com"), ui.ErrUnknownAction)

	require.NoError(t, doc.Click(context.Background(), "view-projects:a@x.com"))
	assert.Equal(t, 1, calls)
}

func TestDocument_ChangeFiresSingleHandler(t *testing.T) {
	doc := ui.NewDocument(time.UTC)
	var first, second int
	doc.OnChange("searchInput", func(context.Context) error { first++; return nil })
	doc.OnChange("searchInput", func(context.Context) error { second++; return nil })

	require.NoError(t, doc.Change(context.Background(), "searchInput", "alice"))

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, "alice", doc.Value("searchInput"))
}

func TestDocument_ResetClearsEverythingButLocation(t *testing.T) {
	doc := ui.NewDocument(time.UTC)
	doc.Assign("/manager-dashboard.html")
	doc.SetText("totalEngineers", "3")
	doc.ReplaceRegion("usersTable", "<p></p>", map[string]ui.Action{
		"x": func(context.Context) error { return nil },
	})
	o := doc.NewOverlay("projects", "Projects", nil)
	require.NoError(t, o.Open("<p></p>"))
	doc.Alert("hello")

	doc.Reset()

	assert.Equal(t, "", doc.Text("totalEngineers"))
	assert.Empty(t, doc.Actions(""))
	assert.Equal(t, 0, doc.OverlayCount())
	assert.Equal(t, 0, doc.KeyListenerCount())
	assert.Empty(t, doc.TakeAlerts())
	assert.True(t, o.Closed())
	assert.Equal(t, "/manager-dashboard.html", doc.Current())
}

func TestDocument_Navigation(t *testing.T) {
	doc := ui.NewDocument(time.UTC)

	doc.Replace("/login.html")
	doc.Assign("/manager-dashboard.html")
	doc.Replace("/user-dashboard.html")

	assert.Equal(t, "/user-dashboard.html", doc.Current())
	assert.Equal(t, []string{"/login.html", "/user-dashboard.html"}, doc.History())
	assert.Equal(t, uint64(3), doc.Navigations())

	doc.Reset()
	assert.Equal(t, uint64(4), doc.Navigations())
}

func TestDocument_PressKeyNewestFirst(t *testing.T) {
	doc := ui.NewDocument(time.UTC)
	var order []string
	doc.AddKeyListener(func(string) bool { order = append(order, "old"); return true })
	remove := doc.AddKeyListener(func(string) bool { order = append(order, "new"); return false })

	assert.True(t, doc.PressKey("Escape"))
	assert.Equal(t, []string{"new", "old"}, order)

	remove()
	remove()
	assert.Equal(t, 1, doc.KeyListenerCount())
}

func TestDocument_TakeAlerts(t *testing.T) {
	doc := ui.NewDocument(nil)
	doc.Alert("one")
	doc.Alert("two")

	assert.Equal(t, []string{"one", "two"}, doc.TakeAlerts())
	assert.Nil(t, doc.TakeAlerts())
	assert.Equal(t, time.Local, doc.TimeZone())
}

func TestDocument_Snapshot(t *testing.T) {
	doc := ui.NewDocument(time.UTC)
	doc.Assign("/manager-dashboard.html")
	doc.SetTextTone("addUserError", "Error adding user.", ui.ToneError)
	doc.SetValue("activityFilter", "active")
	o := doc.NewOverlay("projects", "Projects for a@x.com", nil)
	require.NoError(t, o.Open("<table></table>"))

	snap := doc.Snapshot()

	assert.Equal(t, "/manager-dashboard.html", snap.Location)
	assert.Equal(t, ui.Text{Value: "Error adding user.", Tone: ui.ToneError}, snap.Text("addUserError"))
	assert.Equal(t, "active", snap.Value("activityFilter"))
	require.Len(t, snap.Overlays, 1)
	assert.Equal(t, "Projects for a@x.com", snap.Overlays[0].Title)
	assert.Equal(t, o.CloseAction(), snap.Focus)
	assert.Contains(t, snap.Actions, o.CloseAction())

	// snapshot is a copy
	doc.SetText("addUserError", "")
	assert.Equal(t, "Error adding user.", snap.Text("addUserError").Value)
}
