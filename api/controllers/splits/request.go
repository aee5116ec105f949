package splits

import "github.com/tabsplit/tabsplit-backend/internal/split"

// saveSplitRequest mirrors the engine's positional wire payload with
// validation tags. The receipt id comes from the URL, not the body.
type saveSplitRequest struct {
	Participants []wireParticipant `json:"participants" validate:"required,min=1,dive"`
	Assignments  []wireAssignment  `json:"assignments" validate:"omitempty,dive"`
}

type wireParticipant struct {
	Name       string `json:"name" validate:"required"`
	ColorToken string `json:"color_token"`
	IsSelf     bool   `json:"is_self"`
}

type wireAssignment struct {
	ItemKey            string `json:"item_key" validate:"required"`
	ParticipantIndices []int  `json:"participant_indices" validate:"required,min=1"`
}

func (req saveSplitRequest) toEngineRequest(receiptID string) split.SaveSplitRequest {
	out := split.SaveSplitRequest{ReceiptID: receiptID}
	for _, p := range req.Participants {
		out.Participants = append(out.Participants, split.WireParticipant{
			Name:       p.Name,
			ColorToken: p.ColorToken,
			IsSelf:     p.IsSelf,
		})
	}
	for _, a := range req.Assignments {
		out.Assignments = append(out.Assignments, split.WireAssignment{
			ItemKey:            a.ItemKey,
			ParticipantIndices: a.ParticipantIndices,
		})
	}
	return out
}
