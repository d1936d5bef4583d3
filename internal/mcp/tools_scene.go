package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSceneTools() {
	s.mcp.AddTool(mcp.NewTool("list_scenes",
		mcp.WithDescription("List all scenes with their IDs and names"),
	), s.handleListScenes)

	s.mcp.AddTool(mcp.NewTool("set_active_scene",
		mcp.WithDescription("Set the active scene for subsequent tools"),
		mcp.WithString("sceneId", mcp.Description("Scene ID"), mcp.Required()),
	), s.handleSetActiveScene)

	s.mcp.AddTool(mcp.NewTool("get_scene",
		mcp.WithDescription("Get a scene's full state: metadata, elements and attached files"),
		mcp.WithString("sceneId", mcp.Description("Scene ID (optional, defaults to active scene)")),
	), s.handleGetScene)

	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List a scene's elements with their IDs, types and positions"),
		mcp.WithString("sceneId", mcp.Description("Scene ID (optional, defaults to active scene)")),
	), s.handleListElements)
}

func (s *Server) handleListScenes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenes, err := s.scenes.ListScenes()
	if err != nil {
		return nil, err
	}
	return jsonResult(scenes)
}

func (s *Server) handleSetActiveScene(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sceneID, ok := args["sceneId"].(string)
	if !ok || sceneID == "" {
		return nil, fmt.Errorf("sceneId is required")
	}
	if _, err := s.scenes.GetScene(sceneID); err != nil {
		return nil, fmt.Errorf("scene not found: %w", err)
	}
	s.activeSceneID = sceneID
	return textResult("Active scene set to " + sceneID), nil
}

func (s *Server) handleGetScene(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sceneID, err := s.resolveSceneID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	state, err := s.scenes.GetSceneState(sceneID)
	if err != nil {
		return nil, err
	}
	return jsonResult(state)
}

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sceneID, err := s.resolveSceneID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	elements, err := s.scenes.ListElements(sceneID)
	if err != nil {
		return nil, err
	}

	type elementView struct {
		ID     string  `json:"id"`
		Type   string  `json:"type"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Text   string  `json:"text,omitempty"`
	}
	views := make([]elementView, 0, len(elements))
	for _, e := range elements {
		if e.Deleted {
			continue
		}
		views = append(views, elementView{
			ID: e.ID, Type: string(e.Type),
			X: e.X, Y: e.Y, Width: e.Width, Height: e.Height,
			Text: e.Text,
		})
	}
	return jsonResult(views)
}
