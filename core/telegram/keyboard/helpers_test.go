package keyboard

import "testing"

func TestSingle(t *testing.T) {
	m := Single("/start_chat")
	if !m.ResizeKeyboard {
		t.Fatal("keyboard must be resized")
	}
	if len(m.ReplyKeyboard) != 1 || len(m.ReplyKeyboard[0]) != 1 {
		t.Fatalf("unexpected layout: %+v", m.ReplyKeyboard)
	}
	if got := m.ReplyKeyboard[0][0].Text; got != "/start_chat" {
		t.Fatalf("label = %q", got)
	}
}

func TestReplyButtonsRows(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, []string{"c"})
	if len(m.ReplyKeyboard) != 2 || len(m.ReplyKeyboard[0]) != 2 || m.ReplyKeyboard[1][0].Text != "c" {
		t.Fatalf("unexpected layout: %+v", m.ReplyKeyboard)
	}
}
