package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Channels
	mux.HandleFunc("/api/channels", s.handleChannelsRoute)
	mux.HandleFunc("/api/channels/", s.handleChannelRoutes)

	// API routes - Assets
	mux.HandleFunc("/api/assets/", s.handleAssetRoutes)

	// API routes - Pushed status notifications
	mux.HandleFunc("/api/notifications/status", s.app.NotificationHandler.StatusNotificationHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.StatusHandler.NotFoundHandler)

	return mux
}

// handleChannelsRoute routes /api/channels (collection)
func (s *Server) handleChannelsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.ChannelHandler.ListChannelsHandler(w, r)
	case http.MethodPost:
		s.app.ChannelHandler.CreateChannelHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleChannelRoutes routes /api/channels/{id} and subpaths
func (s *Server) handleChannelRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/channels/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Channel ID required", http.StatusBadRequest)
		return
	}
	channelID := parts[0]

	// /api/channels/{id}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.app.ChannelHandler.GetChannelHandler(w, r, channelID)
		case http.MethodDelete:
			s.app.ChannelHandler.DeleteChannelHandler(w, r, channelID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/channels/{id}/queue
	if len(parts) == 2 && parts[1] == "queue" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.QueueHandler.GetQueueHandler(w, r, channelID)
		return
	}

	// /api/channels/{id}/queue/refresh
	if len(parts) == 3 && parts[1] == "queue" && parts[2] == "refresh" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.QueueHandler.RefreshQueueHandler(w, r, channelID)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}

// handleAssetRoutes routes /api/assets/{id} and subpaths
func (s *Server) handleAssetRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assets/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Asset ID required", http.StatusBadRequest)
		return
	}
	assetID := parts[0]

	// /api/assets/{id}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodPatch:
			s.app.AssetHandler.UpdateAssetHandler(w, r, assetID)
		case http.MethodDelete:
			s.app.AssetHandler.DeleteAssetHandler(w, r, assetID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "post":
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			s.app.AssetHandler.PostAssetHandler(w, r, assetID)
			return
		case "reprocess":
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			s.app.AssetHandler.ReprocessAssetHandler(w, r, assetID)
			return
		}
	}

	http.Error(w, "Not found", http.StatusNotFound)
}
