package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           mtd API
// @version         1.0
// @description     HTTP API for real-time machine translation: single and
// @description     batch translation, language detection, streaming sessions
// @description     and telemetry.
//
// @BasePath  /
//
// @schemes http
