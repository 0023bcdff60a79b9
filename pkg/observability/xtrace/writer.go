package xtrace

import "net/http"

// statusWriter 记录处理器写出的状态码，未显式写出时为 200
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Status 返回已写出的状态码
func (w *statusWriter) Status() int {
	return w.status
}

// Unwrap 供 http.ResponseController 访问底层 writer
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
