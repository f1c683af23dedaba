package parser

import (
	"testing"

	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

func TestParse_TradeWhisper(t *testing.T) {
	line := "2,From shrack (*shrack): Hi, I'm interested in your Frostburn listed for 2 wss."

	events := Parse(line)
	if len(events) != 2 {
		t.Fatalf("Parse() returned %d events, want 2", len(events))
	}

	if events[0].Type != event.TradeMessage {
		t.Fatalf("events[0].Type = %v, want %v", events[0].Type, event.TradeMessage)
	}
	wantTrade := event.Trade{
		IsIncoming:    true,
		PlayerName:    "shrack",
		AccountName:   "shrack",
		CharacterName: "shrack",
		Message:       "Hi, I'm interested in your Frostburn listed for 2 wss.",
		ItemName:      "Frostburn",
		Price:         "2 wss",
	}
	if *events[0].Trade != wantTrade {
		t.Errorf("trade = %+v, want %+v", *events[0].Trade, wantTrade)
	}

	if events[1].Type != event.WhisperReceived {
		t.Fatalf("events[1].Type = %v, want %v", events[1].Type, event.WhisperReceived)
	}
	wantWhisper := event.Whisper{
		IsTrade:    true,
		From:       "shrack",
		Message:    "Hi, I'm interested in your Frostburn listed for 2 wss.",
		ItemName:   "Frostburn",
		IsJoin:     false,
		IsIncoming: true,
	}
	if *events[1].Whisper != wantWhisper {
		t.Errorf("whisper = %+v, want %+v", *events[1].Whisper, wantWhisper)
	}
}

func TestParse_Join(t *testing.T) {
	events := Parse("4,shrackx(shrack) joined our world. Diablo's minions grow stronger.")
	if len(events) != 1 {
		t.Fatalf("Parse() returned %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != event.Join {
		t.Fatalf("Type = %v, want %v", ev.Type, event.Join)
	}
	if ev.Join.From != "shrack" {
		t.Errorf("From = %q, want %q", ev.Join.From, "shrack")
	}
	if ev.Join.Character != "shrackx" {
		t.Errorf("Character = %q, want %q", ev.Join.Character, "shrackx")
	}
}

func TestParse_JoinVariants(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantFrom string
		wantNil  bool
	}{
		{"starred account", "4,Hammerdin(*Paly) joined our world. Diablo's minions grow stronger.", "Paly", false},
		{"no account", "4,Sorc joined our world. Diablo's minions grow stronger.", "Sorc", false},
		{"unclosed paren", "4,Sorc(acct joined our world.", "Sorc", false},
		{"other notice", "4,shrackx(shrack) left our world. Diablo's minions weaken.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Parse(tt.line)
			if tt.wantNil {
				if events != nil {
					t.Errorf("Parse() = %+v, want nil", events)
				}
				return
			}
			if len(events) != 1 || events[0].Join == nil {
				t.Fatalf("Parse() = %+v, want one join", events)
			}
			if events[0].Join.From != tt.wantFrom {
				t.Errorf("From = %q, want %q", events[0].Join.From, tt.wantFrom)
			}
		})
	}
}

func TestParse_Whispers(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantFrom     string
		wantIncoming bool
		wantTrade    bool
		wantItem     string
	}{
		{
			name:         "incoming plain",
			line:         "2,From Blizz (*acc): are you there?",
			wantFrom:     "acc",
			wantIncoming: true,
		},
		{
			name:     "outgoing plain",
			line:     "2,Sent to Shrackb (*shrack): thanks",
			wantFrom: "shrack",
		},
		{
			name:         "character only",
			line:         "2,From Loner: hello",
			wantFrom:     "Loner",
			wantIncoming: true,
		},
		{
			name:         "character with trailing token",
			line:         "2,From Loner extra: hello",
			wantFrom:     "Loner",
			wantIncoming: true,
		},
		{
			name:         "unclosed paren falls back to character",
			line:         "2,From Loner (*acc: hello",
			wantFrom:     "Loner",
			wantIncoming: true,
		},
		{
			name:      "outgoing trade",
			line:      "2,Sent to Seller (*Trader): Hi, I'm interested in your Shako listed for 1 ist",
			wantFrom:  "Trader",
			wantTrade: true,
			wantItem:  "Shako",
		},
		{
			name:         "trade phrase not at start is not a trade",
			line:         "2,From A (*B): lol Hi, I'm interested in your Shako listed for 1 ist",
			wantFrom:     "B",
			wantIncoming: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Parse(tt.line)
			var w *event.Whisper
			for _, ev := range events {
				if ev.Type == event.WhisperReceived {
					w = ev.Whisper
				}
			}
			if w == nil {
				t.Fatalf("Parse() = %+v, want a whisper", events)
			}
			if w.From != tt.wantFrom {
				t.Errorf("From = %q, want %q", w.From, tt.wantFrom)
			}
			if w.IsIncoming != tt.wantIncoming {
				t.Errorf("IsIncoming = %v, want %v", w.IsIncoming, tt.wantIncoming)
			}
			if w.IsTrade != tt.wantTrade {
				t.Errorf("IsTrade = %v, want %v", w.IsTrade, tt.wantTrade)
			}
			if w.ItemName != tt.wantItem {
				t.Errorf("ItemName = %q, want %q", w.ItemName, tt.wantItem)
			}
			if w.IsJoin {
				t.Error("IsJoin = true for a whisper")
			}
		})
	}
}

func TestParse_TradeDetails(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		wantPlayer    string
		wantAccount   string
		wantCharacter string
		wantPrice     string
		wantIncoming  bool
	}{
		{
			name:          "distinct account",
			line:          "2,From DoreetDrood (*Doreets): Hi, I'm interested in your Harlequin Crest listed for 3 ber.",
			wantPlayer:    "Doreets",
			wantAccount:   "Doreets",
			wantCharacter: "DoreetDrood",
			wantPrice:     "3 ber",
			wantIncoming:  true,
		},
		{
			name:          "no account",
			line:          "2,Sent to Buyer: Hi, I'm interested in your Shako listed for 1 ist",
			wantPlayer:    "Buyer",
			wantCharacter: "Buyer",
			wantPrice:     "1 ist",
		},
		{
			name:          "no price",
			line:          "2,From A (*B): Hi, I'm interested in your Shako listed",
			wantPlayer:    "B",
			wantAccount:   "B",
			wantCharacter: "A",
			wantIncoming:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Parse(tt.line)
			if len(events) == 0 || events[0].Trade == nil {
				t.Fatalf("Parse() = %+v, want a trade first", events)
			}
			tr := events[0].Trade
			if tr.PlayerName != tt.wantPlayer {
				t.Errorf("PlayerName = %q, want %q", tr.PlayerName, tt.wantPlayer)
			}
			if tr.AccountName != tt.wantAccount {
				t.Errorf("AccountName = %q, want %q", tr.AccountName, tt.wantAccount)
			}
			if tr.CharacterName != tt.wantCharacter {
				t.Errorf("CharacterName = %q, want %q", tr.CharacterName, tt.wantCharacter)
			}
			if tr.Price != tt.wantPrice {
				t.Errorf("Price = %q, want %q", tr.Price, tt.wantPrice)
			}
			if tr.IsIncoming != tt.wantIncoming {
				t.Errorf("IsIncoming = %v, want %v", tr.IsIncoming, tt.wantIncoming)
			}
		})
	}
}

func TestParse_Skipped(t *testing.T) {
	lines := []string{
		"",
		"some random text",
		"1,System: welcome",
		"2,Whatever without direction",
		"2,From Nobody without colon",
		"2,From Friend (*pal): Your friend pal has entered Project Diablo 2.",
		"2,From Friend (*pal): Your friend pal has left Project Diablo 2.",
		"3,From shrack (*shrack): Hi, I'm interested in your Frostburn listed for 2 wss.",
	}

	for _, line := range lines {
		if events := Parse(line); len(events) != 0 {
			t.Errorf("Parse(%q) = %+v, want no events", line, events)
		}
	}
}

func TestParse_StripsLineEnding(t *testing.T) {
	events := Parse("2,From A (*B): hello\r\n")
	if len(events) != 1 || events[0].Whisper == nil {
		t.Fatalf("Parse() = %+v, want one whisper", events)
	}
	if events[0].Whisper.Message != "hello" {
		t.Errorf("Message = %q, want %q", events[0].Whisper.Message, "hello")
	}
}
