// Package parser classifies Project Diablo 2 chat log lines into events.
//
// The chat log holds one message per line, prefixed with a channel number
// and a comma. Only two channels are understood:
//
//	2,From shrack (*shrack): Hi, I'm interested in your Frostburn listed for 2 wss.
//	2,Sent to Shrackb (*shrack): thanks
//	4,shrackx(shrack) joined our world. Diablo's minions grow stronger.
//
// Every other line is skipped without error.
package parser

import (
	"strings"
	"time"

	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

const (
	whisperPrefix = "2,"
	noticePrefix  = "4,"

	incomingMarker = "From "
	outgoingMarker = "Sent to "
	joinedMarker   = " joined our world"

	// TradePhrase opens every whisper generated by the trade site.
	TradePhrase = "Hi, I'm interested in your "

	friendMarker  = "Your friend"
	friendEntered = "has entered Project Diablo 2"
	friendLeft    = "has left Project Diablo 2"
)

// Parse classifies a single line. It returns nil when the line matches no
// known grammar. A trade whisper yields two events, the TradeMessage first
// and the WhisperReceived second.
func Parse(line string) []event.Event {
	line = strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(line, noticePrefix) {
		if j, ok := parseJoin(line); ok {
			return []event.Event{{Type: event.Join, Time: time.Now(), Join: j}}
		}
		return nil
	}

	if !strings.HasPrefix(line, whisperPrefix) {
		return nil
	}

	var events []event.Event
	now := time.Now()
	if tr, ok := parseTrade(line); ok {
		events = append(events, event.Event{Type: event.TradeMessage, Time: now, Trade: tr})
	}
	if w, ok := parseWhisper(line); ok {
		events = append(events, event.Event{Type: event.WhisperReceived, Time: now, Whisper: w})
	}
	return events
}

func parseJoin(line string) (*event.Joined, bool) {
	body := line[len(noticePrefix):]
	idx := strings.Index(body, joinedMarker)
	if idx < 0 {
		return nil, false
	}

	character, account, _ := splitPlayer(strings.TrimSpace(body[:idx]))
	from := character
	if account != "" {
		from = account
	}
	return &event.Joined{
		From:      from,
		Character: character,
		Account:   account,
		Message:   body,
	}, true
}

// splitWhisper cuts a "2," line into direction, sender part and message.
func splitWhisper(line string) (incoming bool, sender, message string, ok bool) {
	var rest string
	if i := strings.Index(line, incomingMarker); i >= 0 {
		incoming = true
		rest = line[i+len(incomingMarker):]
	} else if i := strings.Index(line, outgoingMarker); i >= 0 {
		rest = line[i+len(outgoingMarker):]
	} else {
		return false, "", "", false
	}

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return false, "", "", false
	}
	return incoming, strings.TrimSpace(rest[:colon]), strings.TrimSpace(rest[colon+1:]), true
}

// splitPlayer splits "character (*account)" into its parts. The leading
// '*' of the account is stripped. hasParen reports whether a well-formed
// parenthesised account was present.
func splitPlayer(s string) (character, account string, hasParen bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, "", false
	}
	character = strings.TrimSpace(s[:open])
	end := strings.IndexByte(s[open:], ')')
	if end < 0 {
		return character, "", false
	}
	account = strings.TrimSpace(s[open+1 : open+end])
	return character, strings.TrimPrefix(account, "*"), true
}

func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

func parseWhisper(line string) (*event.Whisper, bool) {
	incoming, senderPart, message, ok := splitWhisper(line)
	if !ok {
		return nil, false
	}

	if strings.Contains(message, friendMarker) &&
		(strings.Contains(message, friendLeft) || strings.Contains(message, friendEntered)) {
		return nil, false
	}

	var from string
	if strings.IndexByte(senderPart, '(') >= 0 {
		if _, account, ok := splitPlayer(senderPart); ok {
			from = account
		} else {
			fields := strings.Fields(senderPart)
			from = senderPart
			if len(fields) > 0 {
				from = fields[0]
			}
		}
	} else {
		from = firstToken(senderPart)
	}

	w := &event.Whisper{
		From:       from,
		Message:    message,
		IsIncoming: incoming,
	}
	if strings.HasPrefix(message, TradePhrase) {
		w.IsTrade = true
		w.ItemName = itemName(message)
	}
	return w, true
}

func parseTrade(line string) (*event.Trade, bool) {
	if !strings.Contains(line, TradePhrase) {
		return nil, false
	}
	incoming, senderPart, message, ok := splitWhisper(line)
	if !ok {
		return nil, false
	}

	var character, account string
	if strings.IndexByte(senderPart, '(') >= 0 {
		character, account, _ = splitPlayer(senderPart)
	} else {
		character = firstToken(senderPart)
	}
	player := character
	if account != "" {
		player = account
	}

	return &event.Trade{
		IsIncoming:    incoming,
		PlayerName:    player,
		AccountName:   account,
		CharacterName: character,
		Message:       message,
		ItemName:      itemName(message),
		Price:         price(message),
	}, true
}

// itemName returns the text between "your " and the following " listed".
func itemName(message string) string {
	i := strings.Index(message, "your ")
	if i < 0 {
		return ""
	}
	after := message[i+len("your "):]
	end := strings.Index(after, " listed")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(after[:end])
}

// price returns the text after "listed for " up to the next '.' or the end.
func price(message string) string {
	i := strings.Index(message, "listed for ")
	if i < 0 {
		return ""
	}
	after := message[i+len("listed for "):]
	if end := strings.IndexByte(after, '.'); end >= 0 {
		after = after[:end]
	}
	return strings.TrimSpace(after)
}
