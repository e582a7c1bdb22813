package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raine/telegram-classifieds-bot/internal/listing"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "подать объявление", normalizeLabel(BtnCreateAd))
	assert.Equal(t, "завершить без фото", normalizeLabel(BtnFinish))
	assert.Equal(t, "cancel", normalizeLabel("  CANCEL "))
	assert.Equal(t, "", normalizeLabel("❌"))
	assert.Equal(t, "отмена", normalizeLabel("✖\ufe0f Отмена"))
	assert.Equal(t, "cancel", normalizeLabel("👩\u200d💻 cancel"))
}

func TestNormalizeLabel_KeepsPunctuation(t *testing.T) {
	assert.Equal(t, "@cancel", normalizeLabel("@cancel"))
	assert.Equal(t, "#sell", normalizeLabel("#Sell"))
	assert.Equal(t, "+7 900 000-00-00", normalizeLabel("+7 900 000-00-00"))

	for _, text := range []string{"@cancel", "@Sell", "#отмена", "+buy"} {
		assert.False(t, IsButtonLabel(text), text)
	}
}

func TestIsButtonLabel(t *testing.T) {
	for _, label := range []string{BtnCreateAd, BtnViewAds, BtnBuy, BtnSell, BtnCancel, BtnFinish, "Create ad", "view ads", "Finish without photo"} {
		assert.True(t, IsButtonLabel(label), label)
	}
	for _, text := range []string{"", "hello", "куплю велосипед", "Отмена!"} {
		assert.False(t, IsButtonLabel(text), text)
	}
}

func TestMatchKind(t *testing.T) {
	tests := []struct {
		input  string
		want   listing.Kind
		wantOk bool
	}{
		{BtnBuy, listing.KindBuy, true},
		{"КУПЛЮ", listing.KindBuy, true},
		{"buy", listing.KindBuy, true},
		{BtnSell, listing.KindSell, true},
		{" Sell ", listing.KindSell, true},
		{"rent", 0, false},
		{BtnCancel, 0, false},
	}
	for _, tt := range tests {
		got, ok := matchKind(tt.input)
		assert.Equal(t, tt.wantOk, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}
