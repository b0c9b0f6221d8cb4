package types

// RoomState:
//   roomId: string
//   config: RoomConfig // customWords never included
//   players: { sessionId: string, username: string, score: number }[] // draw order
//   phase: "LOBBY" | "CHOOSING_WORD" | "DRAWING" | "GAME_OVER"
//   gameRunning: boolean
//   gameOver: boolean
//   currentRound: number
//   maxRounds: number
//   drawerIndex: number // -1 before the first turn
//   currentDrawerSessionId?: string
//   roundTime: number
//   hintWord: string // e.g. "g _ _ _ f _ _"; the word itself is never sent here
//   playersWhoGuessedCorrectly: string[] // session ids
