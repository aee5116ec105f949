package split

import "github.com/shopspring/decimal"

// ShareItem is one line of a participant's breakdown.
type ShareItem struct {
	ItemKey     string          `json:"item_key"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ShareAmount decimal.Decimal `json:"share_amount"`
}

// PersonShare is the computed money position of one participant.
type PersonShare struct {
	ParticipantID string          `json:"participant_id"`
	Name          string          `json:"name"`
	TotalOwed     decimal.Decimal `json:"total_owed"`
	ItemCount     int             `json:"item_count"`
	Items         []ShareItem     `json:"items"`
}

// Compute derives every participant's share from the current assignments. It
// is a pure function of its inputs: same items, keys, assignments and
// participants always yield the same breakdown, in registry display order.
//
// Each assigned item contributes price times quantity divided by the number
// of assignees. Per-item shares accumulate at full decimal precision and the
// running total is rounded half away from zero to two places only once, at
// the end. Rounding each share before summing would compound cent drift
// across a long receipt. Unassigned items contribute to no one; participants
// with no items still appear with a zero total so callers can render the
// whole roster.
func Compute(items []LineItem, keys KeyMap, assignments *Assignments, participants []Participant) []PersonShare {
	shares := make([]PersonShare, len(participants))
	for pi, p := range participants {
		total := decimal.Zero
		var owned []ShareItem
		for i, item := range items {
			key, ok := keys.ForIndex(i)
			if !ok {
				continue
			}
			if !assignments.Contains(key, p.ID) {
				continue
			}
			n := assignments.AssigneeCount(key)
			lineTotal := item.LineTotal()
			share := lineTotal.Div(decimal.NewFromInt(int64(n)))
			total = total.Add(share)
			owned = append(owned, ShareItem{
				ItemKey:     key,
				Name:        item.Name,
				Price:       lineTotal,
				ShareAmount: share.Round(2),
			})
		}
		shares[pi] = PersonShare{
			ParticipantID: p.ID,
			Name:          p.Name,
			TotalOwed:     total.Round(2),
			ItemCount:     len(owned),
			Items:         owned,
		}
	}
	return shares
}
