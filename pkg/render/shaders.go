package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ShaderManager handles OpenGL shader program compilation, linking, and uniform
// management.
type ShaderManager struct {
	program   uint32
	uViewProj int32 // view-projection matrix
	uColor    int32 // part color
	uLit      int32 // 1 for shaded triangles, 0 for lines
	uLightDir int32 // world-space direction towards the light
}

// Vertex shader. Transforms world-space positions and forwards normals.
const vertexShaderSource = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uViewProj;

out vec3 vNormal;

void main() {
    gl_Position = uViewProj * vec4(aPos, 1.0);
    vNormal = aNormal;
}
` + "\x00"

// Fragment shader. Two-sided Lambert shading with an ambient floor; lines
// are drawn in the flat part color.
const fragmentShaderSource = `
#version 410 core
in vec3 vNormal;
out vec4 FragColor;

uniform vec4 uColor;
uniform int uLit;
uniform vec3 uLightDir;

void main() {
    if (uLit == 0) {
        FragColor = uColor;
        return;
    }
    float diffuse = abs(dot(normalize(vNormal), normalize(uLightDir)));
    FragColor = vec4(uColor.rgb * (0.25 + 0.75 * diffuse), uColor.a);
}
` + "\x00"

// NewShaderManager compiles and links the mesh shader program.
func NewShaderManager() (*ShaderManager, error) {
	sm := &ShaderManager{}

	vertexShader, err := sm.compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := sm.compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fragmentShader)

	sm.program = gl.CreateProgram()
	gl.AttachShader(sm.program, vertexShader)
	gl.AttachShader(sm.program, fragmentShader)
	gl.LinkProgram(sm.program)

	var status int32
	gl.GetProgramiv(sm.program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(sm.program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(sm.program, logLength, nil, gl.Str(logText))
		return nil, fmt.Errorf("render: shader linking failed: %s", logText)
	}

	sm.uViewProj = gl.GetUniformLocation(sm.program, gl.Str("uViewProj\x00"))
	sm.uColor = gl.GetUniformLocation(sm.program, gl.Str("uColor\x00"))
	sm.uLit = gl.GetUniformLocation(sm.program, gl.Str("uLit\x00"))
	sm.uLightDir = gl.GetUniformLocation(sm.program, gl.Str("uLightDir\x00"))
	gl.UseProgram(sm.program)
	return sm, nil
}

// SetViewProjection sets the view-projection matrix.
func (sm *ShaderManager) SetViewProjection(matrix [16]float32) {
	gl.UniformMatrix4fv(sm.uViewProj, 1, false, &matrix[0])
}

// SetLight sets the direction towards the light.
func (sm *ShaderManager) SetLight(x, y, z float32) {
	gl.Uniform3f(sm.uLightDir, x, y, z)
}

// SetColor sets the color of the next draw and whether it is shaded.
func (sm *ShaderManager) SetColor(c [4]float32, lit bool) {
	gl.Uniform4f(sm.uColor, c[0], c[1], c[2], c[3])
	var l int32
	if lit {
		l = 1
	}
	gl.Uniform1i(sm.uLit, l)
}

// Delete releases the program.
func (sm *ShaderManager) Delete() {
	gl.DeleteProgram(sm.program)
}

func (sm *ShaderManager) compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("render: shader compilation failed: %s", logText)
	}
	return shader, nil
}
