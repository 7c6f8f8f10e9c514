package types

import "github.com/jdmadden/planning-poker-backend/internal/game"

const (
	CmdJoinGame           = "JoinGame"
	CmdJoinGameAsHost     = "JoinGameAsHost"
	CmdSubmitVote         = "SubmitVote"
	CmdStartRound         = "StartRound"
	CmdEndRound           = "EndRound"
	CmdResetVotes         = "ResetVotes"
	CmdGetGameState       = "GetGameState"
	CmdGetPlayerGameState = "GetPlayerGameState"
)

const (
	EvtUpdatePlayerList = "UpdatePlayerList"
	EvtPlayerVoted      = "PlayerVoted"
	EvtVotesRevealed    = "VotesRevealed"
	EvtRoundStarted     = "RoundStarted"
	EvtVotesReset       = "VotesReset"
	EvtGameState        = "ReceiveGameState"
	EvtPlayerGameState  = "ReceivePlayerGameState"
	EvtError            = "Error"
)

type ClientMessage struct {
	Type       string `json:"type"`
	GameLink   string `json:"gameLink,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Card       string `json:"card,omitempty"`
	RoundName  string `json:"roundName,omitempty"`
}

type ServerMessage struct {
	Type       string            `json:"type"`
	Players    []game.PlayerInfo `json:"players,omitempty"`
	PlayerName string            `json:"playerName,omitempty"`
	RoundName  string            `json:"roundName,omitempty"`
	Votes      []game.VoteInfo   `json:"votes,omitempty"`
	State      *game.GameState   `json:"state,omitempty"`
	Error      string            `json:"error,omitempty"`
}
