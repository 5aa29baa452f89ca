package logger

import "go.uber.org/zap"

// Campos estándar — HTTP

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Campos estándar — negocio

func UserID(v string) zap.Field    { return zap.String("user_id", v) }
func Role(v string) zap.Field      { return zap.String("role", v) }
func SessionID(v string) zap.Field { return zap.String("session_id", v) }

// Email: usar con cuidado en prod.
func Email(v string) zap.Field { return zap.String("email", v) }

// Campos estándar — sistema

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// Genéricos

func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
