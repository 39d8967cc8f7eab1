package templates

import (
	"testing"

	"streamcast/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	data := models.EventData{
		"displayName": "ember_fox",
		"amount":      25.5,
		"viewers":     120,
	}

	t.Run("replaces known fields", func(t *testing.T) {
		out := substitute("<h1>{{displayName}} donated {{amount}}</h1>", data)
		assert.Equal(t, "<h1>ember_fox donated 25.5</h1>", out)
	})

	t.Run("tolerates whitespace in tokens", func(t *testing.T) {
		out := substitute("hello {{ displayName }}", data)
		assert.Equal(t, "hello ember_fox", out)
	})

	t.Run("missing fields become empty", func(t *testing.T) {
		out := substitute("msg: {{message}}", data)
		assert.Equal(t, "msg: ", out)
	})

	t.Run("tier falls back to 1", func(t *testing.T) {
		out := substitute("tier {{tier}}", data)
		assert.Equal(t, "tier 1", out)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := substitute("{{displayName}} / {{unknown}}", data)
		twice := substitute(once, data)
		assert.Equal(t, once, twice)
		assert.NotContains(t, twice, "{{")
	})
}

func TestRender(t *testing.T) {
	tpl := &models.Template{
		Markup:    `<div>{{displayName}} raided with {{viewers}} viewers</div>`,
		Style:     `.alert { color: {{color}}; }`,
		Animation: "zoom-in",
		SoundRef:  "horn.ogg",
		Volume:    0.8,
	}
	data := models.EventData{"displayName": "night_owl", "viewers": 100, "color": "#fff"}

	payload := Render(tpl, data)
	assert.Equal(t, "<div>night_owl raided with 100 viewers</div>", payload.Markup)
	assert.Equal(t, ".alert { color: #fff; }", payload.Style)
	assert.Equal(t, "zoom-in", payload.Animation)
	assert.Equal(t, "horn.ogg", payload.SoundRef)
	assert.InDelta(t, 0.8, payload.Volume, 1e-9)

	t.Run("duration defaults when unset", func(t *testing.T) {
		assert.Equal(t, DefaultDuration, payload.Duration)
	})

	t.Run("explicit duration kept", func(t *testing.T) {
		tpl.Duration = 8000
		assert.Equal(t, 8000, Render(tpl, data).Duration)
	})
}
