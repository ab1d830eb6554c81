package reconcile

import "memocal/internal/model"

// renderConfirmed builds the confirmation rendering: event attributes plus
// the calendar link control.
func (e *Engine) renderConfirmed(d model.EventDraft) Content {
	c := Content{
		Title:  "📅 確定：Googleカレンダーに追加",
		Footer: "各自でリンクから追加してください",
		Fields: []Field{
			{Name: "タイトル", Value: d.Title},
			{Name: "日時", Value: e.formatWhen(d)},
		},
		LinkLabel: "Googleカレンダーに追加",
		LinkURL:   e.links.EventURL(d),
		FileName:  "event.ics",
		FileBody:  e.links.ICS(d, ""),
	}
	if d.Location != "" {
		c.Fields = append(c.Fields, Field{Name: "場所", Value: d.Location})
	}
	if d.Notes != "" {
		c.Fields = append(c.Fields, Field{Name: "メモ", Value: d.Notes})
	}
	return c
}

// renderWithdrawn is the fixed "event withdrawn" rendering. No link.
func renderWithdrawn() Content {
	return Content{
		Title: "🗑️ 確定が解除されました",
		Body:  "この予定は削除扱いになりました（各自のGoogleカレンダーに入れた分は手動で削除してください）。",
	}
}

func (e *Engine) formatWhen(d model.EventDraft) string {
	start := d.Start.In(e.loc)
	if d.AllDay {
		return start.Format("2006/01/02") + "（終日）"
	}
	return start.Format("2006/01/02 15:04") + " - " + d.End.In(e.loc).Format("15:04")
}
