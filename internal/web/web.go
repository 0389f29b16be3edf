// Package web はフロントのビルド出力を埋め込んで配信する
package web

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// フロントのビルド出力（public/ に置く）
//
//go:embed public
var embedded embed.FS

// SPAFallback は /api/ 以外の未定義ルートで静的ファイルを返し、無ければ index.html に落とす
func SPAFallback() (gin.HandlerFunc, error) {
	sub, err := fs.Sub(embedded, "public")
	if err != nil {
		return nil, err
	}
	return spaHandler(http.FS(sub)), nil
}

func spaHandler(fileFS http.FileSystem) gin.HandlerFunc {
	return func(c *gin.Context) {
		// API は対象外
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
			return
		}

		reqPath := strings.TrimPrefix(c.Request.URL.Path, "/")
		if reqPath == "" {
			reqPath = "index.html"
		}

		if serve(c, fileFS, reqPath) {
			return
		}
		// なければ index.html にフォールバック
		if serve(c, fileFS, "index.html") {
			return
		}
		c.Status(http.StatusNotFound)
	}
}

func serve(c *gin.Context, fileFS http.FileSystem, name string) bool {
	f, err := fileFS.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		c.Header("Content-Type", ct)
	}
	// index.html 以外はキャッシュ
	if !strings.HasSuffix(name, "index.html") {
		c.Header("Cache-Control", "public, max-age=86400, immutable")
	}
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
	return true
}
