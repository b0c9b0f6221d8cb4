package types

// Client -> Server (one JSON object per websocket text frame)
// join:
//   roomId: string
//   username: string
//   action: "create" | "join"
//   config?: RoomConfig // create only; omitted fields take defaults
//
// draw:
//   roomId: string
//   stroke: Stroke // type "CLEAR" empties the canvas
//
// chat:
//   roomId: string
//   content: string // checked as a guess while a word is being drawn
//
// start:
//   roomId: string
//
// chooseWord:
//   roomId: string
//   word: string // one of the words from the last "choices" message

// RoomConfig:
//   language: "English" | "German" | "French" | "Italian"
//   scoringMode: "Chill" | "Normal" | "Competitive"
//   drawingTime: number // seconds, 30..600
//   rounds: number // 1..20
//   maxPlayers: number // 2..100
//   playersPerIpLimit: number // 0 disables the cap
//   customWordsPerTurn: number // 1..5
//   customWords: string[]
//   isPrivate: boolean
//   lobbyName: string

// Stroke:
//   type: string
//   prevX, prevY, currX, currY: number
//   color: string
//   lineWidth: number

// Server -> Client
// state:   { state: RoomState }
// chat:    { chat: { type: "CHAT" | "JOIN" | "LEAVE" | "SYSTEM" | "GUESS_CORRECT" | "CLOSE_GUESS",
//                    sender: string, senderSessionId?: string, content: string } }
// draw:    { stroke: Stroke }
// history: { strokes: Stroke[] } // sent once to a late joiner, oldest first
// time:    { time: number } // seconds left in the current phase
// choices: { choices: string[] } // drawer only
// word:    { word: string } // drawer only
// error:   { error: string }
