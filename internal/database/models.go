package database

// MatchRecord is one finished match as persisted for history queries.
type MatchRecord struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	Player1      string `json:"player1"`
	Player2      string `json:"player2"`
	Winner       string `json:"winner"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	Bet          int64  `json:"bet"`
	Deals        int    `json:"deals"`
}
