package validation

import (
	"testing"

	"talkbridge/pkg/models"
)

func nImages(img []byte, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = img
	}
	return out
}

func TestValidateAction(t *testing.T) {
	img := []byte{0xff, 0xd8, 0xff}
	cases := []struct {
		name   string
		action *models.OutboundAction
		max    int64
		ok     bool
	}{
		{"nil", nil, 0, false},
		{"text ok", &models.OutboundAction{Kind: models.ActionSendText, ConversationID: 1, Text: "hi"}, 0, true},
		{"text blank", &models.OutboundAction{Kind: models.ActionSendText, ConversationID: 1, Text: "   "}, 0, false},
		{"no conversation", &models.OutboundAction{Kind: models.ActionSendText, Text: "hi"}, 0, false},
		{"image ok", &models.OutboundAction{Kind: models.ActionSendImage, ConversationID: 1, Images: [][]byte{img}}, 100, true},
		{"image missing", &models.OutboundAction{Kind: models.ActionSendImage, ConversationID: 1}, 100, false},
		{"image too many", &models.OutboundAction{Kind: models.ActionSendImage, ConversationID: 1, Images: [][]byte{img, img}}, 100, false},
		{"image too large", &models.OutboundAction{Kind: models.ActionSendImage, ConversationID: 1, Images: [][]byte{img}}, 2, false},
		{"image empty payload", &models.OutboundAction{Kind: models.ActionSendImage, ConversationID: 1, Images: [][]byte{{}}}, 100, false},
		{"images ok", &models.OutboundAction{Kind: models.ActionSendImages, ConversationID: 1, Images: [][]byte{img, img}}, 100, true},
		{"images none", &models.OutboundAction{Kind: models.ActionSendImages, ConversationID: 1}, 100, false},
		{"images at cap", &models.OutboundAction{Kind: models.ActionSendImages, ConversationID: 1, Images: nImages(img, MaxImagesPerRequest)}, 100, true},
		{"images over cap", &models.OutboundAction{Kind: models.ActionSendImages, ConversationID: 1, Images: nImages(img, MaxImagesPerRequest+1)}, 100, false},
		{"mark read", &models.OutboundAction{Kind: models.ActionMarkRead, ConversationID: 1}, 0, true},
		{"unknown kind", &models.OutboundAction{Kind: "teleport", ConversationID: 1}, 0, false},
	}
	for _, tc := range cases {
		err := ValidateAction(tc.action, tc.max)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
